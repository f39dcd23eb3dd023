package findlink

import (
	"context"
	"net/url"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
)

// GetInfo looks title up, following at most one redirect.
func (c *Client) GetInfo(ctx context.Context, title string) (*Page, error) {
	ctx, span := c.startOp(ctx, "get_info", title)
	defer span.End()

	if err := ValidateTitle("title", title); err != nil {
		return nil, finish(span, err)
	}

	params := url.Values{}
	params.Set("prop", "info")
	params.Set("redirects", "")
	params.Set("titles", title)

	doc, err := c.fetchQuery(ctx, params, nil)
	if err != nil {
		return nil, finish(span, err)
	}

	target, redirected, err := wiki.ResolveRedirect(doc)
	if err != nil {
		c.logger.Error("Unexpected redirect records", "title", title, "error", err)
		return nil, finish(span, err)
	}

	page, err := wiki.FirstPage(doc)
	if err != nil {
		if ferrors.IsMissingPage(err) {
			return nil, finish(span, ferrors.NewMissingPageError(title))
		}
		return nil, finish(span, err)
	}

	result := &Page{Title: page.Title}
	if redirected {
		result.RedirectsTo = target
	} else {
		metrics.RecordClassification(wiki.OutcomeArticle)
	}
	return result, nil
}

// ResolveTitle is GetInfo with the redirect target given the case of the
// query's first letter. Concurrent lookups of the same title share one request;
// the shared request is detached from any single caller's cancellation and each
// caller stops waiting when its own ctx is done.
func (c *Client) ResolveTitle(ctx context.Context, q string) (*Page, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.resolve.DoChan(q, func() (any, error) {
		page, err := c.GetInfo(shared, q)
		if err != nil {
			return nil, err
		}
		if page.RedirectsTo != "" {
			page.RedirectsTo = wiki.MatchCase(q, page.RedirectsTo)
		}
		return page, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		page := *res.Val.(*Page)
		return &page, nil
	}
}
