// Find-link MCP Server - A Model Context Protocol server that finds Wikipedia
// articles mentioning a subject without linking to it.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/olgasafonova/findlink-mcp-server/internal/config"
	"github.com/olgasafonova/findlink-mcp-server/internal/findlink"
	"github.com/olgasafonova/findlink-mcp-server/tools"
)

const (
	ServerName    = "findlink-mcp-server"
	ServerVersion = "1.0.0"
)

// Version information set via ldflags during build.
var (
	version = ServerVersion
	commit  = "unknown"
	date    = "unknown"
)

const instructions = `Find-link MCP Server finds Wikipedia articles that mention a subject but do not link to it.

Start with findlink_candidates for a subject title. Use findlink_backlinks, findlink_redirects and
findlink_find_disambig to inspect the link graph, and findlink_diff to preview an edit without saving it.

Configure via environment variables:
- FINDLINK_API_URL: MediaWiki API URL (default https://en.wikipedia.org/w/api.php)
- FINDLINK_USER_AGENT: User-Agent with contact information
- FINDLINK_LOG_LEVEL: DEBUG, INFO, WARN or ERROR`

// recoverPanic logs a recovered panic instead of crashing the process
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "findlink",
		Short:         "Find unlinked mentions of Wikipedia articles",
		Long:          `findlink queries the MediaWiki API for articles that mention a subject without linking to it. It runs as an MCP server or as a one-shot CLI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("env-file", ".env", "Path to .env file")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(searchCmd())
	cmd.AddCommand(infoCmd())
	cmd.AddCommand(candidatesCmd())
	cmd.AddCommand(backlinksCmd())
	cmd.AddCommand(disambigCmd())
	cmd.AddCommand(diffCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// setup loads configuration and builds the logger and client shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *findlink.Client, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	// stdout carries the MCP protocol and CLI output
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	return cfg, logger, findlink.NewFromConfig(cfg, logger), nil
}

// newMCPServer creates the MCP server with every find-link tool registered.
func newMCPServer(client *findlink.Client, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})

	tools.NewHandlerRegistry(client, logger).RegisterAll(server)
	return server
}
