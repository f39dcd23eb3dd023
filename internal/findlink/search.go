package findlink

import (
	"context"
	"net/url"
	"strconv"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
)

// Search runs an exact-phrase full-text search for q (parenthesised
// qualifiers removed) and follows sroffset continuation.
func (c *Client) Search(ctx context.Context, q string) (*SearchResults, error) {
	ctx, span := c.startOp(ctx, "search", q)
	defer span.End()

	if err := ValidateTitle("query", q); err != nil {
		return nil, finish(span, err)
	}
	phrase := StripParens(q)
	if phrase == "" {
		return nil, finish(span, ferrors.NewValidationError("query", q, "only a parenthesised qualifier, nothing to search for"))
	}

	params := url.Values{}
	params.Set("list", "search")
	params.Set("srwhat", "text")
	params.Set("srlimit", strconv.Itoa(SearchLimit))
	params.Set("srsearch", `"`+phrase+`"`)

	totalHits := -1
	hits, err := wiki.Paginate(ctx, c.fetcher, params, wiki.Pager[SearchHit]{
		Key:              "sroffset",
		MaxContinuations: c.maxContinuations,
		Extract: func(r *wiki.Reply) ([]SearchHit, error) {
			doc, err := r.QueryDoc()
			if err != nil {
				return nil, err
			}
			if totalHits < 0 && doc.SearchInfo != nil {
				totalHits = doc.SearchInfo.TotalHits
			}
			out := make([]SearchHit, 0, len(doc.Search))
			for _, s := range doc.Search {
				out = append(out, SearchHit{Title: s.Title, Snippet: s.Snippet})
			}
			return out, nil
		},
	})
	if err != nil {
		return nil, finish(span, err)
	}

	if totalHits < 0 {
		totalHits = len(hits)
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	return &SearchResults{TotalHits: totalHits, Results: hits}, nil
}
