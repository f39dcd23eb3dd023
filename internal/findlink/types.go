package findlink

import "github.com/olgasafonova/findlink-mcp-server/internal/wiki"

// Page is the outcome of a title lookup. Operations never return a missing
// page; they return *errors.MissingPageError instead.
type Page struct {
	Title       string `json:"title"`
	Missing     bool   `json:"missing,omitempty"`
	RedirectsTo string `json:"redirects_to,omitempty"`
}

// Resolved returns the redirect target, or the title itself when the page is not a redirect.
func (p Page) Resolved() string {
	if p.RedirectsTo != "" {
		return p.RedirectsTo
	}
	return p.Title
}

// SearchHit is one full-text search result. Snippet is HTML markup.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResults holds every hit gathered across result pages, in server relevance order.
type SearchResults struct {
	TotalHits int         `json:"total_hits"`
	Results   []SearchHit `json:"results"`
}

// BacklinkSet splits the pages linking to a title into articles and redirects.
type BacklinkSet = wiki.BacklinkSet

// RecentPage is an entry of the new-pages feed.
type RecentPage struct {
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// PageContent is the current wikitext of an article.
type PageContent struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Candidates lists articles that mention a subject without linking to it.
type Candidates struct {
	Query      string      `json:"query"`
	RedirectTo string      `json:"redirect_to,omitempty"`
	TotalHits  int         `json:"total_hits"`
	Results    []SearchHit `json:"results"`
	Longer     []string    `json:"longer_titles"`
}
