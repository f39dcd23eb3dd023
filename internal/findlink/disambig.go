package findlink

import (
	"context"
	"net/url"
	"strconv"

	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
)

const nsTemplate = 10

// FindDisambig returns the titles among titles that are disambiguation pages,
// in input order. Titles are queried 50 at a time; each batch follows its own
// tlcontinue chain.
func (c *Client) FindDisambig(ctx context.Context, titles []string) ([]string, error) {
	ctx, span := c.startOp(ctx, "find_disambig", "")
	defer span.End()

	if err := ValidateTitles("titles", titles); err != nil {
		return nil, finish(span, err)
	}

	found, err := wiki.ForEachBatch(titles, c.batchSize, func(batch []string) ([]string, error) {
		return c.disambigBatch(ctx, batch)
	})
	if err != nil {
		return nil, finish(span, err)
	}
	return found, nil
}

func (c *Client) disambigBatch(ctx context.Context, batch []string) ([]string, error) {
	params := url.Values{}
	params.Set("prop", "templates")
	params.Set("tllimit", strconv.Itoa(ListLimit))
	params.Set("tlnamespace", strconv.Itoa(nsTemplate))
	params.Set("titles", wiki.JoinTitles(batch))

	canonical := make(map[string]string)
	hits, err := wiki.Paginate(ctx, c.fetcher, params, wiki.Pager[string]{
		Key:              "tlcontinue",
		MaxContinuations: c.maxContinuations,
		Extract: func(r *wiki.Reply) ([]string, error) {
			doc, err := r.QueryDoc()
			if err != nil {
				return nil, err
			}
			for _, n := range doc.Normalized {
				canonical[n.From] = n.To
			}
			var out []string
			for _, page := range doc.Pages {
				if c.disambig.IsDisambig(page) {
					out = append(out, page.Title)
				}
			}
			return out, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return orderByInput(batch, canonical, hits), nil
}

// orderByInput returns the distinct hits ordered by the position of the input
// title they answer. Hits that match no input title keep their fetch order at the end.
func orderByInput(batch []string, canonical map[string]string, hits []string) []string {
	pending := make(map[string]bool, len(hits))
	for _, h := range hits {
		pending[h] = true
	}

	out := make([]string, 0, len(pending))
	for _, title := range batch {
		if to, ok := canonical[title]; ok {
			title = to
		}
		if pending[title] {
			out = append(out, title)
			metrics.RecordClassification(wiki.OutcomeDisambiguation)
			delete(pending, title)
		}
	}
	for _, h := range hits {
		if pending[h] {
			out = append(out, h)
			metrics.RecordClassification(wiki.OutcomeDisambiguation)
			delete(pending, h)
		}
	}
	return out
}

// PageLinks returns the article links of each page in titles, keyed by page title.
// Titles are queried 50 at a time following plcontinue.
func (c *Client) PageLinks(ctx context.Context, titles []string) (map[string][]string, error) {
	ctx, span := c.startOp(ctx, "page_links", "")
	defer span.End()

	if err := ValidateTitles("titles", titles); err != nil {
		return nil, finish(span, err)
	}

	pages, err := wiki.ForEachBatch(titles, c.batchSize, func(batch []string) ([]wiki.PageDoc, error) {
		params := url.Values{}
		params.Set("prop", "links")
		params.Set("pllimit", strconv.Itoa(ListLimit))
		params.Set("plnamespace", strconv.Itoa(nsArticle))
		params.Set("titles", wiki.JoinTitles(batch))

		return wiki.Paginate(ctx, c.fetcher, params, wiki.Pager[wiki.PageDoc]{
			Key:              "plcontinue",
			MaxContinuations: c.maxContinuations,
			Extract: func(r *wiki.Reply) ([]wiki.PageDoc, error) {
				doc, err := r.QueryDoc()
				if err != nil {
					return nil, err
				}
				return doc.Pages, nil
			},
		})
	})
	if err != nil {
		return nil, finish(span, err)
	}

	links := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, page := range pages {
		if len(page.Links) == 0 {
			continue
		}
		if seen[page.Title] == nil {
			seen[page.Title] = make(map[string]bool)
		}
		for _, l := range page.Links {
			if !seen[page.Title][l.Title] {
				seen[page.Title][l.Title] = true
				links[page.Title] = append(links[page.Title], l.Title)
			}
		}
	}
	return links, nil
}
