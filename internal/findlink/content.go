package findlink

import (
	"context"
	"net/url"
	"strconv"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
)

// NewPagesLimit is the rclimit of the new-pages feed
const NewPagesLimit = 50

// GetContent returns the current wikitext and revision timestamp of title.
// The text is what a link matcher edits; the timestamp guards the later save.
func (c *Client) GetContent(ctx context.Context, title string) (*PageContent, error) {
	ctx, span := c.startOp(ctx, "get_content", title)
	defer span.End()

	if err := ValidateTitle("title", title); err != nil {
		return nil, finish(span, err)
	}

	params := url.Values{}
	params.Set("prop", "revisions")
	params.Set("rvprop", "content|timestamp")
	params.Set("rvslots", "main")
	params.Set("titles", title)

	doc, err := c.fetchQuery(ctx, params, nil)
	if err != nil {
		return nil, finish(span, err)
	}
	page, err := wiki.FirstPage(doc)
	if err != nil {
		if ferrors.IsMissingPage(err) {
			err = ferrors.NewMissingPageError(title)
		}
		return nil, finish(span, err)
	}
	if len(page.Revisions) == 0 {
		return nil, finish(span, ferrors.NewProtocolError("get content", "no revision returned for %q", page.Title))
	}

	rev := page.Revisions[0]
	return &PageContent{
		Title:     page.Title,
		Content:   rev.Slots["main"].Content,
		Timestamp: rev.Timestamp,
	}, nil
}

// NewPages lists the most recently created articles, redirects excluded.
func (c *Client) NewPages(ctx context.Context) ([]RecentPage, error) {
	ctx, span := c.startOp(ctx, "new_pages", "")
	defer span.End()

	params := url.Values{}
	params.Set("list", "recentchanges")
	params.Set("rclimit", strconv.Itoa(NewPagesLimit))
	params.Set("rctype", "new")
	params.Set("rcnamespace", strconv.Itoa(nsArticle))
	params.Set("rcshow", "!redirect")
	params.Set("rcprop", "title|timestamp|user|comment")

	doc, err := c.fetchQuery(ctx, params, nil)
	if err != nil {
		return nil, finish(span, err)
	}

	pages := make([]RecentPage, 0, len(doc.RecentChanges))
	for _, rc := range doc.RecentChanges {
		pages = append(pages, RecentPage{
			Title:     rc.Title,
			Timestamp: rc.Timestamp,
			User:      rc.User,
			Comment:   rc.Comment,
		})
	}
	return pages, nil
}
