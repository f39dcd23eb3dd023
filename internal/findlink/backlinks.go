package findlink

import (
	"context"
	"net/url"
	"strconv"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
)

// badTitle maps the backlink module's invalid-title error to *errors.BadTitleError.
func badTitle(title string) func(*wiki.APIErrorDoc) error {
	return func(doc *wiki.APIErrorDoc) error {
		if doc.Code == "blinvalidtitle" || doc.Code == "invalidtitle" {
			metrics.RecordClassification(wiki.OutcomeBadTitle)
			return &ferrors.BadTitleError{Title: title, Info: doc.Info}
		}
		return nil
	}
}

func backlinkParams(q string) url.Values {
	params := url.Values{}
	params.Set("list", "backlinks")
	params.Set("bllimit", strconv.Itoa(ListLimit))
	params.Set("blnamespace", strconv.Itoa(nsArticle))
	params.Set("bltitle", q)
	return params
}

func extractBacklinks(r *wiki.Reply) ([]wiki.Backlink, error) {
	doc, err := r.QueryDoc()
	if err != nil {
		return nil, err
	}
	return doc.Backlinks, nil
}

// Backlinks lists every article-namespace page linking to q, split into
// articles and redirects. An invalid title fails before any continuation request.
func (c *Client) Backlinks(ctx context.Context, q string) (*BacklinkSet, error) {
	ctx, span := c.startOp(ctx, "backlinks", q)
	defer span.End()

	if err := ValidateTitle("title", q); err != nil {
		return nil, finish(span, err)
	}

	links, err := wiki.Paginate(ctx, c.fetcher, backlinkParams(q), wiki.Pager[wiki.Backlink]{
		Key:              "blcontinue",
		Extract:          extractBacklinks,
		OnError:          badTitle(q),
		MaxContinuations: c.backlinkContinuation,
	})
	if err != nil {
		return nil, finish(span, err)
	}

	set := wiki.PartitionBacklinks(links)
	return &set, nil
}

// Redirects lists the redirects pointing at q. Only the first result page is read.
func (c *Client) Redirects(ctx context.Context, q string) ([]string, error) {
	ctx, span := c.startOp(ctx, "redirects", q)
	defer span.End()

	if err := ValidateTitle("title", q); err != nil {
		return nil, finish(span, err)
	}

	params := backlinkParams(q)
	params.Set("blfilterredir", "redirects")

	doc, err := c.fetchQuery(ctx, params, badTitle(q))
	if err != nil {
		return nil, finish(span, err)
	}
	if err := wiki.RequireRedirectMarkers(doc.Backlinks); err != nil {
		return nil, finish(span, err)
	}

	titles := make([]string, 0, len(doc.Backlinks))
	for _, b := range doc.Backlinks {
		titles = append(titles, b.Title)
	}
	return titles, nil
}
