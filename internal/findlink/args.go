package findlink

// SearchArgs contains the arguments for findlink_search
type SearchArgs struct {
	Query string `json:"query" jsonschema:"Subject title to search for as an exact phrase; parenthesised qualifiers are ignored"`
}

// SearchResult is the result of findlink_search
type SearchResult struct {
	TotalHits int         `json:"total_hits"`
	Results   []SearchHit `json:"results"`
	Count     int         `json:"count"`
}

// TitleArgs contains a single subject title
type TitleArgs struct {
	Title string `json:"title" jsonschema:"Page title, e.g. Albert Einstein"`
}

// ResolveTitleResult is the result of findlink_resolve_title
type ResolveTitleResult struct {
	Title       string `json:"title"`
	RedirectsTo string `json:"redirects_to,omitempty"`
	Resolved    string `json:"resolved"`
}

// CandidatesArgs contains the arguments for findlink_candidates
type CandidatesArgs struct {
	Query string `json:"query" jsonschema:"Subject article to find unlinked mentions of (URL form with underscores is accepted)"`
}

// CandidatesResult is the result of findlink_candidates
type CandidatesResult struct {
	Query      string      `json:"query"`
	RedirectTo string      `json:"redirect_to,omitempty"`
	TotalHits  int         `json:"total_hits"`
	Results    []SearchHit `json:"results"`
	Longer     []string    `json:"longer_titles"`
	Count      int         `json:"count"`
}

// BacklinksResult is the result of findlink_backlinks
type BacklinksResult struct {
	Articles      []string `json:"articles"`
	Redirects     []string `json:"redirects"`
	ArticleCount  int      `json:"article_count"`
	RedirectCount int      `json:"redirect_count"`
}

// TitleListResult is a plain list of titles
type TitleListResult struct {
	Titles []string `json:"titles"`
	Count  int      `json:"count"`
}

// TitlesArgs contains a batch of titles
type TitlesArgs struct {
	Titles []string `json:"titles" jsonschema:"Page titles to check; any number, queried 50 at a time"`
}

// PageLinksResult is the result of findlink_page_links
type PageLinksResult struct {
	Links map[string][]string `json:"links"`
}

// PrefixArgs contains a title prefix
type PrefixArgs struct {
	Prefix string `json:"prefix" jsonschema:"Title prefix; the exact title itself is excluded from the results"`
}

// CategoryArgs contains a category title
type CategoryArgs struct {
	Category string `json:"category" jsonschema:"Category title including the Category: prefix"`
}

// GetContentResult is the result of findlink_get_content
type GetContentResult struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// DiffArgs contains the arguments for findlink_diff
type DiffArgs struct {
	Title   string `json:"title" jsonschema:"Article to compare against"`
	Section int    `json:"section,omitempty" jsonschema:"Section number to compare; 0 is the lead section"`
	Text    string `json:"text" jsonschema:"Proposed wikitext of the section"`
}

// DiffResult is the result of findlink_diff
type DiffResult struct {
	Title string `json:"title"`
	Diff  string `json:"diff"`
}

// NewPagesArgs takes no arguments
type NewPagesArgs struct{}

// NewPagesResult is the result of findlink_new_pages
type NewPagesResult struct {
	Pages []RecentPage `json:"pages"`
	Count int          `json:"count"`
}
