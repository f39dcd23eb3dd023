package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
	"github.com/olgasafonova/findlink-mcp-server/tracing"
)

const (
	// DefaultMaxAttempts is the total number of attempts made for a reply that does not decode.
	DefaultMaxAttempts = 5

	// DefaultDecodeBackoff is the fixed wait between decode attempts.
	DefaultDecodeBackoff = 500 * time.Millisecond
)

// Transport executes one round trip and returns the raw body.
// *base.Session implements it.
type Transport interface {
	Get(ctx context.Context, params url.Values) ([]byte, error)
	Post(ctx context.Context, params url.Values) ([]byte, error)
}

// Fetcher wraps a Transport with bounded retries against malformed payloads.
type Fetcher struct {
	transport   Transport
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// FetcherOption configures the Fetcher
type FetcherOption func(*Fetcher)

// WithMaxAttempts sets the total number of decode attempts (minimum 1).
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithDecodeBackoff sets the fixed wait between decode attempts.
func WithDecodeBackoff(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d >= 0 {
			f.backoff = d
		}
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher over t.
func NewFetcher(t Transport, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		transport:   t,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultDecodeBackoff,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Logger returns the fetcher's logger.
func (f *Fetcher) Logger() *slog.Logger {
	return f.logger
}

// Fetch issues params as a GET and decodes the reply. A body that is not valid
// JSON is retried after a fixed wait; the decode failure of the last attempt is
// returned as *errors.DecodeError. Transport errors are returned immediately:
// the session has already applied its connection-level retries.
//
// A reply carrying an API error object is returned as-is with a nil error;
// callers decide how to map it.
func (f *Fetcher) Fetch(ctx context.Context, params url.Values) (*Reply, error) {
	ctx, span := tracing.StartSpan(ctx, "wiki.fetch")
	defer span.End()

	var (
		attempt      int
		transportErr error
	)
	op := func() (*Reply, error) {
		attempt++
		body, err := f.transport.Get(ctx, params)
		if err != nil {
			transportErr = err
			return nil, backoff.Permanent(err)
		}
		reply, err := decodeReply(body)
		if err != nil {
			return nil, &ferrors.DecodeError{Attempts: attempt, Err: err}
		}
		return reply, nil
	}

	reply, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(f.backoff)),
		backoff.WithMaxTries(uint(f.maxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.DecodeRetries.Inc()
			f.logger.Warn("Wiki reply did not decode, retrying",
				"attempt", attempt,
				"max_attempts", f.maxAttempts,
				"wait", wait,
				"error", err)
		}),
	)
	if err != nil {
		if transportErr != nil {
			err = transportErr
		}
		if ferrors.IsDecode(err) {
			metrics.DecodeFailures.Inc()
		}
		tracing.RecordError(span, err)
		return nil, err
	}

	f.observe(reply)
	return reply, nil
}

// FetchOnce issues a single request with the given HTTP method and decodes it
// without retrying. It is used for the diff preview, which is sent as a POST.
func (f *Fetcher) FetchOnce(ctx context.Context, method string, params url.Values) (*Reply, error) {
	ctx, span := tracing.StartSpan(ctx, "wiki.fetch_once")
	defer span.End()

	var (
		body []byte
		err  error
	)
	switch method {
	case http.MethodGet:
		body, err = f.transport.Get(ctx, params)
	case http.MethodPost:
		body, err = f.transport.Post(ctx, params)
	default:
		err = fmt.Errorf("unsupported method %q", method)
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	reply, err := decodeReply(body)
	if err != nil {
		metrics.DecodeFailures.Inc()
		err = &ferrors.DecodeError{Attempts: 1, Err: err}
		tracing.RecordError(span, err)
		return nil, err
	}

	f.observe(reply)
	return reply, nil
}

func (f *Fetcher) observe(reply *Reply) {
	if reply.Error != nil {
		metrics.RecordAPIError(reply.Error.Code)
		f.logger.Debug("Wiki API returned an error object", "code", reply.Error.Code, "info", reply.Error.Info)
	}
}

func decodeReply(body []byte) (*Reply, error) {
	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
