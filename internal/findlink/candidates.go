package findlink

import (
	"context"
)

// Candidates finds articles that mention q (or the title it redirects to) but
// do not link to it yet. Pages already linking to the subject, the subject and
// its redirect target, and disambiguation pages are dropped. Longer lists
// article titles that start with q.
func (c *Client) Candidates(ctx context.Context, q string) (*Candidates, error) {
	ctx, span := c.startOp(ctx, "candidates", q)
	defer span.End()

	q = NormalizeQuery(q)
	if err := ValidateArticleTitle("query", q); err != nil {
		return nil, finish(span, err)
	}

	page, err := c.ResolveTitle(ctx, q)
	if err != nil {
		return nil, finish(span, err)
	}

	found, err := c.Search(ctx, q)
	if err != nil {
		return nil, finish(span, err)
	}
	totalHits := found.TotalHits
	hits := found.Results

	if page.RedirectsTo != "" {
		more, err := c.Search(ctx, page.RedirectsTo)
		if err != nil {
			return nil, finish(span, err)
		}
		totalHits += more.TotalHits
		hits = append(hits, more.Results...)
	}

	linked, err := c.Backlinks(ctx, page.Resolved())
	if err != nil {
		return nil, finish(span, err)
	}

	exclude := make(map[string]bool)
	for _, title := range []string{q, page.Title, page.Resolved()} {
		exclude[title] = true
		exclude[UpperFirst(title)] = true
	}
	for _, title := range linked.Articles {
		exclude[title] = true
	}
	for _, title := range linked.Redirects {
		exclude[title] = true
	}

	var kept []SearchHit
	seen := make(map[string]bool)
	for _, hit := range hits {
		if exclude[hit.Title] || seen[hit.Title] {
			continue
		}
		seen[hit.Title] = true
		kept = append(kept, hit)
	}

	if len(kept) > 0 {
		titles := make([]string, len(kept))
		for i, hit := range kept {
			titles[i] = hit.Title
		}
		disambig, err := c.FindDisambig(ctx, titles)
		if err != nil {
			return nil, finish(span, err)
		}
		if len(disambig) > 0 {
			isDab := make(map[string]bool, len(disambig))
			for _, d := range disambig {
				isDab[d] = true
			}
			filtered := kept[:0]
			for _, hit := range kept {
				if !isDab[hit.Title] {
					filtered = append(filtered, hit)
				}
			}
			kept = filtered
		}
	}

	longer, err := c.AllPages(ctx, q)
	if err != nil {
		return nil, finish(span, err)
	}

	if kept == nil {
		kept = []SearchHit{}
	}
	return &Candidates{
		Query:      q,
		RedirectTo: page.RedirectsTo,
		TotalHits:  totalHits,
		Results:    kept,
		Longer:     longer,
	}, nil
}
