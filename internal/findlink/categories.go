package findlink

import (
	"context"
	"net/url"
	"strconv"

	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
)

const (
	nsArticle  = 0
	nsCategory = 14
)

// CategoryStart lists category names starting with q, excluding q itself.
func (c *Client) CategoryStart(ctx context.Context, q string) ([]string, error) {
	return c.allPages(ctx, "category_start", nsCategory, q)
}

// AllPages lists article titles starting with q, excluding q itself.
func (c *Client) AllPages(ctx context.Context, q string) ([]string, error) {
	return c.allPages(ctx, "all_pages", nsArticle, q)
}

func (c *Client) allPages(ctx context.Context, op string, ns int, q string) ([]string, error) {
	ctx, span := c.startOp(ctx, op, q)
	defer span.End()

	if err := ValidateTitle("prefix", q); err != nil {
		return nil, finish(span, err)
	}

	params := url.Values{}
	params.Set("list", "allpages")
	params.Set("apnamespace", strconv.Itoa(ns))
	params.Set("apfilterredir", "nonredirects")
	params.Set("aplimit", strconv.Itoa(ListLimit))
	params.Set("apprefix", q)

	doc, err := c.fetchQuery(ctx, params, nil)
	if err != nil {
		return nil, finish(span, err)
	}
	return titlesExcept(doc.AllPages, q), nil
}

// CategoryMembers lists the articles in category q (first letter upper-cased),
// excluding q itself.
func (c *Client) CategoryMembers(ctx context.Context, q string) ([]string, error) {
	ctx, span := c.startOp(ctx, "category_members", q)
	defer span.End()

	if err := ValidateTitle("category", q); err != nil {
		return nil, finish(span, err)
	}

	params := url.Values{}
	params.Set("list", "categorymembers")
	params.Set("cmnamespace", strconv.Itoa(nsArticle))
	params.Set("cmlimit", strconv.Itoa(ListLimit))
	params.Set("cmtitle", UpperFirst(q))

	doc, err := c.fetchQuery(ctx, params, nil)
	if err != nil {
		return nil, finish(span, err)
	}
	return titlesExcept(doc.CategoryMembers, q), nil
}

func titlesExcept(docs []wiki.TitleDoc, exclude string) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Title != exclude {
			out = append(out, d.Title)
		}
	}
	return out
}
