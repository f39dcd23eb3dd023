package base

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/infra"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(endpoint string, opts ...SessionOption) *Session {
	opts = append([]SessionOption{
		WithLogger(quietLogger()),
		WithConnRetries(0, time.Millisecond, time.Millisecond),
	}, opts...)
	return NewSession(endpoint, opts...)
}

func TestNewSession(t *testing.T) {
	s := NewSession("https://en.wikipedia.org/w/api.php")

	if s.HTTP == nil {
		t.Fatal("HTTP is nil")
	}
	if s.Logger == nil {
		t.Error("Logger is nil")
	}
	if s.CircuitBreaker == nil {
		t.Error("CircuitBreaker is nil")
	}
	if cap(s.Semaphore) != MaxConcurrentRequests {
		t.Errorf("semaphore capacity = %d, want %d", cap(s.Semaphore), MaxConcurrentRequests)
	}
	if s.HTTP.RetryMax != DefaultConnRetries {
		t.Errorf("RetryMax = %d, want %d", s.HTTP.RetryMax, DefaultConnRetries)
	}
	if s.HTTP.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", s.HTTP.HTTPClient.Timeout, DefaultTimeout)
	}
	if s.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", s.UserAgent, DefaultUserAgent)
	}
}

func TestNewSessionWithOptions(t *testing.T) {
	customHTTP := &http.Client{Timeout: 60 * time.Second}
	customLogger := quietLogger()
	cb := infra.NewCircuitBreaker()

	s := NewSession("https://example.org/w/api.php",
		WithHTTPClient(customHTTP),
		WithLogger(customLogger),
		WithUserAgent("tester/0.1 (tester@example.org)"),
		WithTimeout(5*time.Second),
		WithConnRetries(2, 10*time.Millisecond, 20*time.Millisecond),
		WithCircuitBreaker(cb),
	)

	if s.HTTP.HTTPClient != customHTTP {
		t.Error("custom HTTP client was not set")
	}
	if customHTTP.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", customHTTP.Timeout)
	}
	if s.Logger != customLogger {
		t.Error("custom logger was not set")
	}
	if s.UserAgent != "tester/0.1 (tester@example.org)" {
		t.Errorf("UserAgent = %q", s.UserAgent)
	}
	if s.HTTP.RetryMax != 2 || s.HTTP.RetryWaitMin != 10*time.Millisecond || s.HTTP.RetryWaitMax != 20*time.Millisecond {
		t.Errorf("retry settings not applied: %d %v %v", s.HTTP.RetryMax, s.HTTP.RetryWaitMin, s.HTTP.RetryWaitMax)
	}
	if s.CircuitBreaker != cb {
		t.Error("custom circuit breaker was not set")
	}
}

func TestMerge(t *testing.T) {
	params := url.Values{"list": {"search"}, "action": {"parse"}}
	merged := Merge(params)

	if merged.Get("format") != "json" || merged.Get("formatversion") != "2" {
		t.Errorf("baseline missing: %v", merged)
	}
	if merged.Get("action") != "parse" {
		t.Errorf("caller action should override baseline, got %q", merged.Get("action"))
	}
	if merged.Get("list") != "search" {
		t.Errorf("list = %q, want search", merged.Get("list"))
	}
	if _, ok := params["format"]; ok {
		t.Error("Merge mutated the caller's parameters")
	}
}

func TestSession_Get(t *testing.T) {
	var gotQuery url.Values
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"batchcomplete":true}`))
	}))
	defer server.Close()

	s := newTestSession(server.URL, WithUserAgent("findlink-test/1.0"))
	body, err := s.Get(context.Background(), url.Values{"list": {"search"}, "continue": {""}})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(body) != `{"batchcomplete":true}` {
		t.Errorf("body = %q", body)
	}
	if gotQuery.Get("action") != "query" || gotQuery.Get("format") != "json" || gotQuery.Get("formatversion") != "2" {
		t.Errorf("baseline parameters missing from query: %v", gotQuery)
	}
	if _, ok := gotQuery["continue"]; !ok {
		t.Error("empty continue marker should be sent, not omitted")
	}
	if gotUA != "findlink-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestSession_Post(t *testing.T) {
	var form url.Values
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		rawQuery = r.URL.RawQuery
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		form = r.PostForm
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := newTestSession(server.URL)
	text := strings.Repeat("long article text ", 500)
	if _, err := s.Post(context.Background(), url.Values{"rvdifftotext": {text}}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if rawQuery != "" {
		t.Errorf("POST should not carry a query string, got %q", rawQuery)
	}
	if form.Get("rvdifftotext") != text {
		t.Error("form body lost rvdifftotext")
	}
	if form.Get("action") != "query" {
		t.Errorf("action = %q, want query", form.Get("action"))
	}
}

func TestSession_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("missing user agent"))
	}))
	defer server.Close()

	s := newTestSession(server.URL)
	_, err := s.Get(context.Background(), nil)

	var statusErr *ferrors.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", statusErr.StatusCode)
	}
	if statusErr.Body != "missing user agent" {
		t.Errorf("body = %q", statusErr.Body)
	}
}

func TestSession_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := newTestSession(server.URL, WithConnRetries(3, time.Millisecond, time.Millisecond))
	if _, err := s.Get(context.Background(), nil); err != nil {
		t.Fatalf("Get failed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestSession_TransportFailureOpensCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	cb := infra.NewCircuitBreakerWithConfig(infra.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	s := newTestSession(endpoint, WithCircuitBreaker(cb))

	for range 2 {
		if _, err := s.Get(context.Background(), nil); err == nil {
			t.Fatal("expected transport error")
		}
	}

	_, err := s.Get(context.Background(), nil)
	var open *infra.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if s.CircuitBreakerStats().State != "open" {
		t.Errorf("state = %q, want open", s.CircuitBreakerStats().State)
	}
}

func TestSession_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := newTestSession(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Get(ctx, nil); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestSession_AcquireSlot_ContextCanceled(t *testing.T) {
	s := &Session{Semaphore: make(chan struct{}, 1)}
	s.Semaphore <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.AcquireSlot(ctx); err == nil {
		t.Error("expected error when context is canceled")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"longer than max length", 10, "longer tha..."},
		{"", 5, ""},
		{"abcd", 3, "abc..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}
