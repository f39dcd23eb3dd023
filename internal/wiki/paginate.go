package wiki

import (
	"context"
	"net/url"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
	"github.com/olgasafonova/findlink-mcp-server/tracing"
)

// DefaultMaxContinuations bounds the continuation requests issued after the first page.
const DefaultMaxContinuations = 10

// Pager describes one endpoint's continuation convention.
type Pager[T any] struct {
	// Key is the continuation key the endpoint advertises, e.g. "sroffset".
	Key string

	// Extract returns the result items of one reply.
	Extract func(*Reply) ([]T, error)

	// Mutate prepares the next request from the reply's continue object.
	// Defaults to CopyContinuation.
	Mutate func(next url.Values, cont Continuation)

	// OnError maps an API error object to an error. Returning nil falls back
	// to *errors.APIError.
	OnError func(*APIErrorDoc) error

	// MaxContinuations bounds requests after the first one. Zero means
	// DefaultMaxContinuations; negative disables continuation.
	MaxContinuations int
}

// CopyContinuation copies every entry of cont into next.
func CopyContinuation(next url.Values, cont Continuation) {
	for k, v := range cont {
		next.Set(k, v)
	}
}

// Paginate drains a paged result set. The first request carries an empty
// continue marker; every following request starts from a fresh copy of params
// updated by p.Mutate. Results are appended in fetch order.
//
// Pagination stops when a reply lacks p.Key, or after 1+MaxContinuations
// requests, in which case the results gathered so far are returned.
// A token equal to the previous one is a protocol error.
func Paginate[T any](ctx context.Context, f *Fetcher, params url.Values, p Pager[T]) ([]T, error) {
	ctx, span := tracing.StartSpan(ctx, "wiki.paginate")
	defer span.End()

	limit := p.MaxContinuations
	if limit == 0 {
		limit = DefaultMaxContinuations
	}
	mutate := p.Mutate
	if mutate == nil {
		mutate = CopyContinuation
	}

	next := Clone(params)
	next.Set("continue", "")

	var (
		out  []T
		prev string
	)
	for page := 0; ; page++ {
		reply, err := f.Fetch(ctx, next)
		if err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}
		metrics.PagesFetched.WithLabelValues(p.Key).Inc()

		if reply.Error != nil {
			err := reply.Error.Err()
			if p.OnError != nil {
				if mapped := p.OnError(reply.Error); mapped != nil {
					err = mapped
				}
			}
			tracing.RecordError(span, err)
			return nil, err
		}

		items, err := p.Extract(reply)
		if err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}
		out = append(out, items...)

		token, more := reply.Continue[p.Key]
		if !more {
			tracing.AddPaginationAttributes(span, p.Key, page+1, false)
			return out, nil
		}
		if page > 0 && token == prev {
			err := ferrors.NewProtocolError("paginate", "continuation %s=%q repeated without progress", p.Key, token)
			tracing.RecordError(span, err)
			return nil, err
		}
		if page >= limit {
			metrics.ContinuationsTruncated.WithLabelValues(p.Key).Inc()
			tracing.AddPaginationAttributes(span, p.Key, page+1, true)
			f.logger.Info("Stopped pagination at continuation limit",
				"key", p.Key,
				"pages", page+1,
				"results", len(out))
			return out, nil
		}

		prev = token
		next = Clone(params)
		mutate(next, reply.Continue)
		f.logger.Debug("Fetching next page", "key", p.Key, "token", token, "page", page+2)
	}
}

// Clone returns a deep copy of params. A nil input yields an empty set.
func Clone(params url.Values) url.Values {
	out := make(url.Values, len(params)+2)
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	return out
}
