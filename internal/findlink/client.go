// Package findlink implements the query operations of the find-link tool on top
// of the wiki protocol layer: search, title resolution, category and backlink
// listings, disambiguation detection and the diff preview.
package findlink

import (
	"context"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/olgasafonova/findlink-mcp-server/internal/base"
	"github.com/olgasafonova/findlink-mcp-server/internal/config"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
	"github.com/olgasafonova/findlink-mcp-server/tracing"
)

const (
	// SearchLimit is the srlimit of one search page
	SearchLimit = 50

	// ListLimit is the limit used by list and prop queries
	ListLimit = 500

	// DefaultBacklinkContinuations bounds backlink pagination. Popular targets
	// have tens of thousands of backlinks, so the cap is higher than for search.
	DefaultBacklinkContinuations = 200

	// MaxTitleBytes is the longest title MediaWiki accepts
	MaxTitleBytes = 255
)

// Client runs find-link queries against one wiki.
type Client struct {
	fetcher              *wiki.Fetcher
	logger               *slog.Logger
	disambig             wiki.DisambigSet
	batchSize            int
	maxContinuations     int
	backlinkContinuation int
	resolve              singleflight.Group
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithDisambigTemplates replaces the disambiguation template list
func WithDisambigTemplates(templates []string) ClientOption {
	return func(c *Client) {
		c.disambig = wiki.NewDisambigSet(templates)
	}
}

// WithBatchSize sets the number of titles per batched request
func WithBatchSize(n int) ClientOption {
	return func(c *Client) {
		c.batchSize = n
	}
}

// WithMaxContinuations bounds search and template pagination
func WithMaxContinuations(n int) ClientOption {
	return func(c *Client) {
		c.maxContinuations = n
	}
}

// WithBacklinkContinuations bounds backlink pagination
func WithBacklinkContinuations(n int) ClientOption {
	return func(c *Client) {
		c.backlinkContinuation = n
	}
}

// NewClient creates a client over f.
func NewClient(f *wiki.Fetcher, opts ...ClientOption) *Client {
	c := &Client{
		fetcher:              f,
		logger:               f.Logger(),
		disambig:             wiki.NewDisambigSet(config.DefaultDisambigTemplates),
		batchSize:            wiki.MaxBatchSize,
		maxContinuations:     wiki.DefaultMaxContinuations,
		backlinkContinuation: DefaultBacklinkContinuations,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires a Session, a Fetcher and a Client from cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	session := base.NewSession(cfg.APIURL,
		base.WithLogger(logger),
		base.WithUserAgent(cfg.UserAgent),
		base.WithTimeout(cfg.Timeout),
		base.WithConnRetries(cfg.ConnRetries, cfg.RetryWaitMin, cfg.RetryWaitMax),
	)
	fetcher := wiki.NewFetcher(session,
		wiki.WithLogger(logger),
		wiki.WithMaxAttempts(cfg.DecodeAttempts),
		wiki.WithDecodeBackoff(cfg.DecodeBackoff),
	)
	return NewClient(fetcher,
		WithLogger(logger),
		WithDisambigTemplates(cfg.DisambigTemplates),
		WithBatchSize(cfg.BatchSize),
		WithMaxContinuations(cfg.MaxContinuations),
	)
}

// startOp opens the span that wraps one query operation.
func (c *Client) startOp(ctx context.Context, op, title string) (context.Context, trace.Span) {
	ctx, span := tracing.StartSpan(ctx, "findlink."+op)
	tracing.AddWikiAttributes(span, op, title)
	c.logger.Debug("Running wiki query", "operation", op, "title", title)
	return ctx, span
}

// fetchQuery runs a single, unpaginated query and decodes its query object.
// An API error object is mapped by onError, falling back to *errors.APIError.
func (c *Client) fetchQuery(ctx context.Context, params url.Values, onError func(*wiki.APIErrorDoc) error) (*wiki.QueryDoc, error) {
	reply, err := c.fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	if reply.Error != nil {
		if onError != nil {
			if mapped := onError(reply.Error); mapped != nil {
				return nil, mapped
			}
		}
		return nil, reply.Error.Err()
	}
	return reply.QueryDoc()
}

// finish records err on span and returns it unchanged.
func finish(span trace.Span, err error) error {
	tracing.RecordError(span, err)
	return err
}
