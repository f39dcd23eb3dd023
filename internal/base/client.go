// Package base provides the long-lived HTTP session shared by every wiki query.
package base

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/infra"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
)

const (
	// DefaultTimeout for API requests
	DefaultTimeout = 30 * time.Second

	// DefaultConnRetries bounds connection-level retries for one request
	DefaultConnRetries = 10

	// MaxConcurrentRequests limits parallel API calls from one process
	MaxConcurrentRequests = 5

	// DefaultUserAgent is sent when no contact user agent is configured
	DefaultUserAgent = "findlink-mcp-server/1.0"
)

// Baseline returns the parameters merged into every request.
func Baseline() url.Values {
	return url.Values{
		"format":        {"json"},
		"formatversion": {"2"},
		"action":        {"query"},
	}
}

// Session is the process-wide HTTP client for one MediaWiki API endpoint.
// It holds no per-call state: parameters are merged into a fresh copy on every request.
type Session struct {
	Endpoint       string
	UserAgent      string
	HTTP           *retryablehttp.Client
	Logger         *slog.Logger
	CircuitBreaker *infra.CircuitBreaker
	Semaphore      chan struct{}
}

// SessionOption configures the Session
type SessionOption func(*Session)

// WithHTTPClient sets the underlying HTTP client used for each attempt
func WithHTTPClient(c *http.Client) SessionOption {
	return func(s *Session) {
		s.HTTP.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.Logger = l
	}
}

// WithUserAgent sets the identifying User-Agent header
func WithUserAgent(ua string) SessionOption {
	return func(s *Session) {
		if ua != "" {
			s.UserAgent = ua
		}
	}
}

// WithTimeout sets the per-attempt deadline
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.HTTP.HTTPClient.Timeout = d
		}
	}
}

// WithConnRetries configures connection-level retries. These are distinct from
// the decode retries done by the wiki package.
func WithConnRetries(max int, waitMin, waitMax time.Duration) SessionOption {
	return func(s *Session) {
		s.HTTP.RetryMax = max
		if waitMin > 0 {
			s.HTTP.RetryWaitMin = waitMin
		}
		if waitMax > 0 {
			s.HTTP.RetryWaitMax = waitMax
		}
	}
}

// WithCircuitBreaker sets a custom circuit breaker
func WithCircuitBreaker(cb *infra.CircuitBreaker) SessionOption {
	return func(s *Session) {
		s.CircuitBreaker = cb
	}
}

// NewSession creates a session for endpoint with default settings
func NewSession(endpoint string, opts ...SessionOption) *Session {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = newHTTPClient(DefaultTimeout)
	rc.RetryMax = DefaultConnRetries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	// Hand non-200 replies back to us instead of a generic "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	s := &Session{
		Endpoint:  endpoint,
		UserAgent: DefaultUserAgent,
		HTTP:      rc,
		Logger:    slog.Default(),
		Semaphore: make(chan struct{}, MaxConcurrentRequests),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.CircuitBreaker == nil {
		logger := s.Logger
		s.CircuitBreaker = infra.NewCircuitBreakerWithConfig(infra.BreakerConfig{
			OnStateChange: func(from, to infra.CircuitState) {
				metrics.CircuitState.Set(float64(to))
				logger.Warn("Wiki API circuit breaker changed state", "from", from.String(), "to", to.String())
			},
		})
	}

	// *slog.Logger satisfies retryablehttp.LeveledLogger.
	rc.Logger = s.Logger
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			metrics.ConnectionRetries.Inc()
			s.Logger.Warn("Retrying wiki API request", "method", req.Method, "attempt", attempt+1)
		}
	}

	return s
}

// CircuitBreakerStats returns the current circuit breaker state
func (s *Session) CircuitBreakerStats() infra.CircuitBreakerStats {
	return s.CircuitBreaker.Stats()
}

// AcquireSlot blocks until a request slot is available or context is canceled
func (s *Session) AcquireSlot(ctx context.Context) error {
	select {
	case s.Semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for request slot: %w", ctx.Err())
	}
}

// ReleaseSlot releases a request slot
func (s *Session) ReleaseSlot() {
	<-s.Semaphore
}

// Get issues params as a query string and returns the raw reply body.
func (s *Session) Get(ctx context.Context, params url.Values) ([]byte, error) {
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", s.Endpoint, err)
	}
	u.RawQuery = Merge(params).Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.do(req)
}

// Post issues params as a form-encoded body and returns the raw reply body.
func (s *Session) Post(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, []byte(Merge(params).Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Session) do(req *retryablehttp.Request) ([]byte, error) {
	if err := s.CircuitBreaker.Guard(); err != nil {
		return nil, err
	}

	if err := s.AcquireSlot(req.Context()); err != nil {
		return nil, err
	}
	defer s.ReleaseSlot()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.UserAgent)

	start := time.Now()
	resp, err := s.HTTP.Do(req)
	if err != nil {
		metrics.RecordAPICall(req.Method, time.Since(start).Seconds(), "transport_error")
		s.CircuitBreaker.RecordFailure()
		return nil, fmt.Errorf("wiki API request failed: %w", err)
	}
	s.CircuitBreaker.RecordSuccess()

	body, err := readAndClose(resp)
	metrics.RecordAPICall(req.Method, time.Since(start).Seconds(), strconv.Itoa(resp.StatusCode))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ferrors.StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	s.Logger.Debug("Wiki API request completed",
		"method", req.Method,
		"bytes", len(body),
		"duration", time.Since(start))

	return body, nil
}

// Merge returns the baseline parameters overlaid with params. params is not modified.
func Merge(params url.Values) url.Values {
	merged := Baseline()
	for k, v := range params {
		merged[k] = append([]string(nil), v...)
	}
	return merged
}

// readAndClose reads the response body and closes it
func readAndClose(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return body, err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// newHTTPClient creates an HTTP client with optimized transport settings
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
