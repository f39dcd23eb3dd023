package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/olgasafonova/findlink-mcp-server/internal/findlink"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
	"github.com/olgasafonova/findlink-mcp-server/tracing"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their findlink.Client handlers.
type HandlerRegistry struct {
	client *findlink.Client
	logger *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(client *findlink.Client, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		client: client,
		logger: logger,
	}
}

// RegisterAll registers all tools with the MCP server and returns how many were registered.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) int {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered all tools", "count", registered)
	return registered
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)
	c := h.client

	switch spec.Method {
	// Search
	case "Candidates":
		register(h, server, tool, spec, c.CandidatesMCP)
	case "Search":
		register(h, server, tool, spec, c.SearchMCP)
	case "NewPages":
		register(h, server, tool, spec, c.NewPagesMCP)

	// Links
	case "Backlinks":
		register(h, server, tool, spec, c.BacklinksMCP)
	case "Redirects":
		register(h, server, tool, spec, c.RedirectsMCP)
	case "PageLinks":
		register(h, server, tool, spec, c.PageLinksMCP)

	// Titles
	case "ResolveTitle":
		register(h, server, tool, spec, c.ResolveTitleMCP)
	case "FindDisambig":
		register(h, server, tool, spec, c.FindDisambigMCP)
	case "AllPages":
		register(h, server, tool, spec, c.AllPagesMCP)
	case "CategoryStart":
		register(h, server, tool, spec, c.CategoryStartMCP)
	case "CategoryMembers":
		register(h, server, tool, spec, c.CategoryMembersMCP)

	// Content
	case "GetContent":
		register(h, server, tool, spec, c.GetContentMCP)
	case "Diff":
		register(h, server, tool, spec, c.DiffMCP)

	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register adds one tool to the MCP server. It wraps the client method with
// panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, wrap(h, spec, method))
}

// wrap builds the typed MCP handler for method.
func wrap[Args, Result any](h *HandlerRegistry, spec ToolSpec, method func(context.Context, Args) (Result, error)) mcp.ToolHandlerFor[Args, Result] {
	return func(ctx context.Context, req *mcp.CallToolRequest, args Args) (_ *mcp.CallToolResult, result Result, err error) {
		defer h.recoverPanic(spec.Name, &err)

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err = method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			h.logger.Warn("Tool failed", "tool", spec.Name, "error", err)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, args, result)
		return nil, result, nil
	}
}

// recoverPanic recovers from panics in tool handlers and turns them into an error.
func (h *HandlerRegistry) recoverPanic(toolName string, errp *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		if errp != nil {
			*errp = fmt.Errorf("%s failed: internal error", toolName)
		}
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	switch a := args.(type) {
	case findlink.SearchArgs:
		attrs = append(attrs, "query", a.Query)
	case findlink.CandidatesArgs:
		attrs = append(attrs, "query", a.Query)
	case findlink.TitleArgs:
		attrs = append(attrs, "title", a.Title)
	case findlink.TitlesArgs:
		attrs = append(attrs, "titles", len(a.Titles))
	case findlink.PrefixArgs:
		attrs = append(attrs, "prefix", a.Prefix)
	case findlink.CategoryArgs:
		attrs = append(attrs, "category", a.Category)
	case findlink.DiffArgs:
		attrs = append(attrs, "title", a.Title, "section", a.Section, "text_bytes", len(a.Text))
	case findlink.NewPagesArgs:
		// No args to log
	}

	switch r := result.(type) {
	case findlink.SearchResult:
		attrs = append(attrs, "results_count", r.Count, "total_hits", r.TotalHits)
	case findlink.CandidatesResult:
		attrs = append(attrs, "results_count", r.Count, "total_hits", r.TotalHits, "longer", len(r.Longer))
	case findlink.ResolveTitleResult:
		attrs = append(attrs, "resolved", r.Resolved)
	case findlink.BacklinksResult:
		attrs = append(attrs, "articles", r.ArticleCount, "redirects", r.RedirectCount)
	case findlink.TitleListResult:
		attrs = append(attrs, "results_count", r.Count)
	case findlink.PageLinksResult:
		attrs = append(attrs, "pages", len(r.Links))
	case findlink.GetContentResult:
		attrs = append(attrs, "content_bytes", len(r.Content))
	case findlink.DiffResult:
		attrs = append(attrs, "diff_bytes", len(r.Diff))
	case findlink.NewPagesResult:
		attrs = append(attrs, "results_count", r.Count)
	}

	h.logger.Info("Tool executed", attrs...)
}
