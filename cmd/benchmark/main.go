package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/olgasafonova/findlink-mcp-server/internal/config"
	"github.com/olgasafonova/findlink-mcp-server/internal/findlink"
)

func newClient(envFile string) (*findlink.Client, *config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return findlink.NewFromConfig(cfg, logger), cfg, nil
}

// measureResolveSharing compares sequential title lookups with concurrent ones
// that share a single in-flight request.
func measureResolveSharing(ctx context.Context, client *findlink.Client, title string) {
	fmt.Println("1. ResolveTitle Request Sharing:")

	start := time.Now()
	page, err := client.ResolveTitle(ctx, title)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	single := time.Since(start)
	fmt.Printf("   Single lookup (%s -> %s): %v\n", title, page.Resolved(), single)

	const callers = 10
	var wg sync.WaitGroup
	start = time.Now()
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.ResolveTitle(ctx, title)
		}()
	}
	wg.Wait()
	shared := time.Since(start)
	fmt.Printf("   %d concurrent lookups:   %v\n", callers, shared)
	fmt.Printf("   Sequential estimate:     %v\n", single*callers)
	fmt.Println()
}

// measurePagination times a paginated search and a paginated backlink listing.
func measurePagination(ctx context.Context, client *findlink.Client, title string) []string {
	fmt.Println("2. Paginated Queries:")

	start := time.Now()
	found, err := client.Search(ctx, title)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return nil
	}
	fmt.Printf("   Search: %d of %d hits in %v\n", len(found.Results), found.TotalHits, time.Since(start))

	start = time.Now()
	links, err := client.Backlinks(ctx, title)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return nil
	}
	fmt.Printf("   Backlinks: %d articles, %d redirects in %v\n",
		len(links.Articles), len(links.Redirects), time.Since(start))
	fmt.Println()

	titles := make([]string, 0, len(found.Results))
	for _, hit := range found.Results {
		titles = append(titles, hit.Title)
	}
	return titles
}

// measureBatching times the disambiguation check over the search results.
func measureBatching(ctx context.Context, client *findlink.Client, titles []string, batchSize int) {
	fmt.Println("3. Batched Disambiguation Check:")
	if len(titles) == 0 {
		fmt.Println("   No titles to check")
		fmt.Println()
		return
	}

	start := time.Now()
	dabs, err := client.FindDisambig(ctx, titles)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	batches := (len(titles) + batchSize - 1) / batchSize
	fmt.Printf("   %d titles in %d batch(es): %d disambiguation pages in %v\n",
		len(titles), batches, len(dabs), time.Since(start))
	fmt.Printf("   API calls without batching: %d\n", len(titles))
	fmt.Println()
}

// measureCandidates times the full candidate pipeline.
func measureCandidates(ctx context.Context, client *findlink.Client, title string) {
	fmt.Println("4. Candidate Pipeline:")

	start := time.Now()
	res, err := client.Candidates(ctx, title)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	fmt.Printf("   %d candidates, %d longer titles in %v\n", len(res.Results), len(res.Longer), time.Since(start))
	fmt.Println()
}

func main() {
	title := flag.String("title", "Fjord", "Subject article to benchmark with")
	envFile := flag.String("env-file", ".env", "Path to .env file")
	flag.Parse()

	fmt.Println("Find-link MCP Server - Performance Measurements")
	fmt.Println("===============================================")
	fmt.Println()

	client, cfg, err := newClient(*envFile)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wiki: %s\n\n", cfg.APIURL)

	ctx := context.Background()
	measureResolveSharing(ctx, client, *title)
	titles := measurePagination(ctx, client, *title)
	measureBatching(ctx, client, titles, cfg.BatchSize)
	measureCandidates(ctx, client, *title)
}
