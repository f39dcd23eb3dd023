package findlink

import (
	"context"
)

// SearchMCP is the MCP adapter for Search
func (c *Client) SearchMCP(ctx context.Context, args SearchArgs) (SearchResult, error) {
	res, err := c.Search(ctx, args.Query)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{TotalHits: res.TotalHits, Results: res.Results, Count: len(res.Results)}, nil
}

// ResolveTitleMCP is the MCP adapter for ResolveTitle
func (c *Client) ResolveTitleMCP(ctx context.Context, args TitleArgs) (ResolveTitleResult, error) {
	page, err := c.ResolveTitle(ctx, args.Title)
	if err != nil {
		return ResolveTitleResult{}, err
	}
	return ResolveTitleResult{Title: page.Title, RedirectsTo: page.RedirectsTo, Resolved: page.Resolved()}, nil
}

// CandidatesMCP is the MCP adapter for Candidates
func (c *Client) CandidatesMCP(ctx context.Context, args CandidatesArgs) (CandidatesResult, error) {
	res, err := c.Candidates(ctx, args.Query)
	if err != nil {
		return CandidatesResult{}, err
	}
	return CandidatesResult{
		Query:      res.Query,
		RedirectTo: res.RedirectTo,
		TotalHits:  res.TotalHits,
		Results:    res.Results,
		Longer:     res.Longer,
		Count:      len(res.Results),
	}, nil
}

// BacklinksMCP is the MCP adapter for Backlinks
func (c *Client) BacklinksMCP(ctx context.Context, args TitleArgs) (BacklinksResult, error) {
	set, err := c.Backlinks(ctx, args.Title)
	if err != nil {
		return BacklinksResult{}, err
	}
	return BacklinksResult{
		Articles:      set.Articles,
		Redirects:     set.Redirects,
		ArticleCount:  len(set.Articles),
		RedirectCount: len(set.Redirects),
	}, nil
}

// RedirectsMCP is the MCP adapter for Redirects
func (c *Client) RedirectsMCP(ctx context.Context, args TitleArgs) (TitleListResult, error) {
	return titleList(c.Redirects(ctx, args.Title))
}

// FindDisambigMCP is the MCP adapter for FindDisambig
func (c *Client) FindDisambigMCP(ctx context.Context, args TitlesArgs) (TitleListResult, error) {
	return titleList(c.FindDisambig(ctx, args.Titles))
}

// PageLinksMCP is the MCP adapter for PageLinks
func (c *Client) PageLinksMCP(ctx context.Context, args TitlesArgs) (PageLinksResult, error) {
	links, err := c.PageLinks(ctx, args.Titles)
	if err != nil {
		return PageLinksResult{}, err
	}
	return PageLinksResult{Links: links}, nil
}

// CategoryMembersMCP is the MCP adapter for CategoryMembers
func (c *Client) CategoryMembersMCP(ctx context.Context, args CategoryArgs) (TitleListResult, error) {
	return titleList(c.CategoryMembers(ctx, args.Category))
}

// CategoryStartMCP is the MCP adapter for CategoryStart
func (c *Client) CategoryStartMCP(ctx context.Context, args PrefixArgs) (TitleListResult, error) {
	return titleList(c.CategoryStart(ctx, args.Prefix))
}

// AllPagesMCP is the MCP adapter for AllPages
func (c *Client) AllPagesMCP(ctx context.Context, args PrefixArgs) (TitleListResult, error) {
	return titleList(c.AllPages(ctx, args.Prefix))
}

// GetContentMCP is the MCP adapter for GetContent
func (c *Client) GetContentMCP(ctx context.Context, args TitleArgs) (GetContentResult, error) {
	content, err := c.GetContent(ctx, args.Title)
	if err != nil {
		return GetContentResult{}, err
	}
	return GetContentResult{Title: content.Title, Content: content.Content, Timestamp: content.Timestamp}, nil
}

// DiffMCP is the MCP adapter for Diff
func (c *Client) DiffMCP(ctx context.Context, args DiffArgs) (DiffResult, error) {
	diff, err := c.Diff(ctx, args.Title, args.Section, args.Text)
	if err != nil {
		return DiffResult{}, err
	}
	return DiffResult{Title: args.Title, Diff: diff}, nil
}

// NewPagesMCP is the MCP adapter for NewPages
func (c *Client) NewPagesMCP(ctx context.Context, _ NewPagesArgs) (NewPagesResult, error) {
	pages, err := c.NewPages(ctx)
	if err != nil {
		return NewPagesResult{}, err
	}
	return NewPagesResult{Pages: pages, Count: len(pages)}, nil
}

func titleList(titles []string, err error) (TitleListResult, error) {
	if err != nil {
		return TitleListResult{}, err
	}
	if titles == nil {
		titles = []string{}
	}
	return TitleListResult{Titles: titles, Count: len(titles)}, nil
}
