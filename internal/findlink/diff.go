package findlink

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
)

// Diff asks the wiki to compare section of title with text and returns the
// server-rendered diff rows (an HTML table body fragment). Nothing is saved.
// The text can be a whole article section, so it is sent as a POST body.
func (c *Client) Diff(ctx context.Context, title string, section int, text string) (string, error) {
	ctx, span := c.startOp(ctx, "diff", title)
	defer span.End()

	if err := ValidateTitle("title", title); err != nil {
		return "", finish(span, err)
	}
	if section < 0 {
		return "", finish(span, ferrors.NewValidationError("section", strconv.Itoa(section), "must not be negative"))
	}

	params := url.Values{}
	params.Set("prop", "revisions")
	params.Set("rvprop", "timestamp")
	params.Set("titles", title)
	params.Set("rvsection", strconv.Itoa(section))
	params.Set("rvdifftotext", strings.TrimSpace(text))

	reply, err := c.fetcher.FetchOnce(ctx, http.MethodPost, params)
	if err != nil {
		return "", finish(span, err)
	}
	if reply.Error != nil {
		return "", finish(span, reply.Error.Err())
	}

	doc, err := reply.QueryDoc()
	if err != nil {
		return "", finish(span, err)
	}
	page, err := wiki.FirstPage(doc)
	if err != nil {
		if ferrors.IsMissingPage(err) {
			err = ferrors.NewMissingPageError(title)
		}
		return "", finish(span, err)
	}
	if len(page.Revisions) == 0 || page.Revisions[0].Diff == nil {
		return "", finish(span, ferrors.NewProtocolError("diff", "no diff returned for %q", page.Title))
	}
	return page.Revisions[0].Diff.Body, nil
}
