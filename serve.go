package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/olgasafonova/findlink-mcp-server/tracing"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	httpAddr    string
	rateLimit   int
	maxBodySize int64
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server on stdio, or on streamable HTTP when --http (or FINDLINK_HTTP_ADDR) is set.

In HTTP mode the server also exposes /metrics for Prometheus and /health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "Listen address for the streamable HTTP transport, e.g. :8080")
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", 60, "Requests per minute per client IP on /mcp (0 disables)")
	cmd.Flags().Int64Var(&opts.maxBodySize, "max-body", 1<<20, "Maximum request body size in bytes on /mcp")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	cfg, logger, client, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tcfg := tracing.DefaultConfig()
	tcfg.ServiceVersion = version
	shutdownTracing, err := tracing.Setup(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	server := newMCPServer(client, logger)

	addr := opts.httpAddr
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	logger.Info("Starting find-link MCP server",
		"name", ServerName,
		"version", version,
		"wiki_url", cfg.APIURL,
		"transport", transportName(addr),
	)

	if addr == "" {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
	handler, guard := newHTTPHandler(server, logger, SecurityConfig{
		RateLimit:   opts.rateLimit,
		MaxBodySize: opts.maxBodySize,
	})
	defer guard.Close()
	return serveHTTP(ctx, addr, handler, logger)
}

func transportName(addr string) string {
	if addr == "" {
		return "stdio"
	}
	return "http"
}

// newHTTPHandler routes /mcp to the streamable MCP transport next to /metrics and /health.
// The returned guard must be closed once the server has shut down.
func newHTTPHandler(server *mcp.Server, logger *slog.Logger, sec SecurityConfig) (http.Handler, *SecurityMiddleware) {
	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
	guard := NewSecurityMiddleware(mcpHandler, logger, sec)
	router.Handle("/mcp", guard)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"name":    ServerName,
			"version": version,
		})
	})

	return router, guard
}

// serveHTTP runs handler on addr until ctx is canceled, then shuts down gracefully.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer recoverPanic(logger, "http server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
