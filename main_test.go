package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olgasafonova/findlink-mcp-server/internal/base"
	"github.com/olgasafonova/findlink-mcp-server/internal/findlink"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute)
	defer rl.Close()

	if rl == nil {
		t.Fatal("NewRateLimiter returned nil")
	}
	if rl.rate != 10 {
		t.Errorf("rate = %d, want 10", rl.rate)
	}
	if rl.interval != time.Minute {
		t.Errorf("interval = %v, want %v", rl.interval, time.Minute)
	}
	if rl.stopCh == nil {
		t.Error("stopCh should be initialized")
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	defer rl.Close()

	ip := "192.168.1.1"

	for i := 0; i < 3; i++ {
		if !rl.Allow(ip) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow(ip) {
		t.Error("4th request should be denied")
	}
}

func TestRateLimiterMultipleIPs(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	defer rl.Close()

	ip1 := "192.168.1.1"
	ip2 := "192.168.1.2"

	// Each IP should have its own bucket
	for i := 0; i < 2; i++ {
		if !rl.Allow(ip1) {
			t.Errorf("Request %d for ip1 should be allowed", i+1)
		}
		if !rl.Allow(ip2) {
			t.Errorf("Request %d for ip2 should be allowed", i+1)
		}
	}

	if rl.Allow(ip1) {
		t.Error("ip1 should be rate limited")
	}
	if rl.Allow(ip2) {
		t.Error("ip2 should be rate limited")
	}
}

func TestRateLimiterClose(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute)

	// Multiple closes should be safe
	rl.Close()
	rl.Close()
	rl.Close()
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	defer rl.Close()

	ip := "192.168.1.1"

	if !rl.Allow(ip) {
		t.Error("First request should be allowed")
	}
	if rl.Allow(ip) {
		t.Error("Immediate second request should be denied")
	}

	time.Sleep(15 * time.Millisecond)

	if !rl.Allow(ip) {
		t.Error("Request after refill should be allowed")
	}
}

func TestRecoverPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	func() {
		defer recoverPanic(logger, "test operation")
		panic("test panic")
	}()
}

type mockHandler struct {
	called bool
}

func (m *mockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.called = true
	w.WriteHeader(http.StatusOK)
}

func TestSecurityMiddlewareBasic(t *testing.T) {
	handler := &mockHandler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sm := NewSecurityMiddleware(handler, logger, SecurityConfig{MaxBodySize: 1000})
	defer sm.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()

	sm.ServeHTTP(w, req)

	if !handler.called {
		t.Error("Handler should have been called")
	}
}

func TestSecurityMiddlewareWithRateLimit(t *testing.T) {
	handler := &mockHandler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sm := NewSecurityMiddleware(handler, logger, SecurityConfig{RateLimit: 2, MaxBodySize: 1000})
	defer sm.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	for i := 0; i < 2; i++ {
		handler.called = false
		w := httptest.NewRecorder()
		sm.ServeHTTP(w, req)
		if !handler.called {
			t.Errorf("Request %d should have been allowed", i+1)
		}
	}

	handler.called = false
	w := httptest.NewRecorder()
	sm.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", w.Code)
	}
	if handler.called {
		t.Error("Handler should not run when rate limited")
	}
}

func TestSecurityMiddlewareBodyTooLarge(t *testing.T) {
	handler := &mockHandler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sm := NewSecurityMiddleware(handler, logger, SecurityConfig{MaxBodySize: 10})
	defer sm.Close()

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(strings.Repeat("x", 100)))
	w := httptest.NewRecorder()
	sm.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}
	if handler.called {
		t.Error("Handler should not run for oversized bodies")
	}
}

func testClient(t *testing.T) (*findlink.Client, *slog.Logger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := base.NewSession("http://127.0.0.1:0/w/api.php", base.WithLogger(logger))
	return findlink.NewClient(wiki.NewFetcher(session, wiki.WithLogger(logger))), logger
}

func TestHTTPHandler_HealthAndMetrics(t *testing.T) {
	client, logger := testClient(t)
	handler, guard := newHTTPHandler(newMCPServer(client, logger), logger, SecurityConfig{})
	defer guard.Close()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, ServerName, health["name"])

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "findlink_mcp_")
}

func TestHTTPHandler_GuardCloseStopsLimiter(t *testing.T) {
	client, logger := testClient(t)
	_, guard := newHTTPHandler(newMCPServer(client, logger), logger, SecurityConfig{RateLimit: 5})
	require.NotNil(t, guard.limiter)

	guard.Close()
	guard.Close()

	select {
	case <-guard.limiter.stopCh:
	default:
		t.Fatal("rate limiter cleanup loop still running after Close")
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := rootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "search", "info", "candidates", "backlinks", "disambig", "diff", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), ServerName+" version "+version)
}

// runCLI executes the root command against a fake wiki API.
func runCLI(t *testing.T, handler http.HandlerFunc, stdin string, args ...string) (string, error) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("FINDLINK_API_URL", server.URL)
	t.Setenv("FINDLINK_CONN_RETRIES", "0")
	t.Setenv("FINDLINK_DECODE_BACKOFF", "1ms")
	t.Setenv("FINDLINK_LOG_LEVEL", "ERROR")

	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	out, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"Mercury"`, r.URL.Query().Get("srsearch"))
		_, _ = io.WriteString(w, `{"query":{"searchinfo":{"totalhits":1},"search":[{"title":"Venus","snippet":"like Mercury"}]}}`)
	}, "", "search", "Mercury", "(planet)")
	require.NoError(t, err)

	var res findlink.SearchResults
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.TotalHits)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Venus", res.Results[0].Title)
}

func TestDisambigCommand(t *testing.T) {
	out, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"query":{"pages":[{"title":"Mercury","templates":[{"ns":10,"title":"Template:Disambiguation"}]},{"title":"Venus"}]}}`)
	}, "", "disambig", "Venus", "Mercury")
	require.NoError(t, err)
	assert.Equal(t, "Mercury\n", out)
}

func TestDiffCommand_ReadsStdin(t *testing.T) {
	out, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "New text", r.PostForm.Get("rvdifftotext"))
		_, _ = io.WriteString(w, `{"query":{"pages":[{"title":"Oslo","revisions":[{"diff":{"body":"<tr>row</tr>"}}]}]}}`)
	}, "  New text\n", "diff", "Oslo")
	require.NoError(t, err)
	assert.Equal(t, "<tr>row</tr>\n", out)
}

func TestInfoCommand_MissingPage(t *testing.T) {
	_, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"query":{"pages":[{"title":"Nowhere","missing":true}]}}`)
	}, "", "info", "Nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nowhere")
}

func TestCommand_BadConfig(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "bad.env")
	require.NoError(t, os.WriteFile(envFile, []byte("FINDLINK_BATCH_SIZE=500\n"), 0o600))
	t.Setenv("FINDLINK_BATCH_SIZE", "")
	require.NoError(t, os.Unsetenv("FINDLINK_BATCH_SIZE"))

	root := rootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--env-file", envFile, "search", "x"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
