package tools

// AllTools contains all tool specifications for the find-link MCP server.
// Tools are organized by category for easier maintenance.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// SEARCH TOOLS
	// ==========================================================================
	{
		Name:     "findlink_candidates",
		Method:   "Candidates",
		Title:    "Find Unlinked Mentions",
		Category: "search",
		Description: `Find articles that mention a subject but do not link to it yet.

USE WHEN: User asks "which articles should link to X", "find unlinked mentions of X", "where could I add a link to X".

NOT FOR: Plain full-text search (use findlink_search). Listing pages that already link (use findlink_backlinks).

PARAMETERS:
- query: Subject article title (required). URL form such as "Albert_Einstein" is accepted.

RETURNS: Candidate articles with search snippets, combined hit count, the redirect target if the subject is a redirect, and longer titles that start with the subject.

NOTE: Pages already linking to the subject and disambiguation pages are removed. Namespaced titles (Category:, User:) are rejected.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_search",
		Method:   "Search",
		Title:    "Exact Phrase Search",
		Category: "search",
		Description: `Full-text search for an exact phrase across all articles.

USE WHEN: User asks "which articles contain the phrase X", "how often is X mentioned".

NOT FOR: Finding link candidates (use findlink_candidates, which also filters existing links).

PARAMETERS:
- query: Phrase to search for (required). Parenthesised qualifiers like "(planet)" are dropped.

RETURNS: Total hit count reported by the wiki and every result gathered across pages (title and HTML snippet).`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_new_pages",
		Method:   "NewPages",
		Title:    "Recently Created Articles",
		Category: "search",
		Description: `List the most recently created articles.

USE WHEN: User asks "what articles were created recently", "show new pages to link".

NOT FOR: Recent edits of existing pages.

PARAMETERS: none

RETURNS: Up to 50 new articles (redirects excluded) with creation timestamp, author and edit summary.`,
		ReadOnly:  true,
		OpenWorld: true,
	},

	// ==========================================================================
	// LINK TOOLS
	// ==========================================================================
	{
		Name:     "findlink_backlinks",
		Method:   "Backlinks",
		Title:    "Backlinks",
		Category: "links",
		Description: `List every article that links to a page, split into articles and redirects.

USE WHEN: User asks "what links to X", "how many pages link to X", "is X an orphan".

NOT FOR: Only the redirects to a page (use findlink_redirects).

PARAMETERS:
- title: Target page title (required)

RETURNS: Article titles and redirect titles in the order the wiki lists them, with counts.

NOTE: Very popular targets are truncated after 200 result pages.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_redirects",
		Method:   "Redirects",
		Title:    "Redirects to Page",
		Category: "links",
		Description: `List the redirects that point at a page.

USE WHEN: User asks "what are the alternative names of X", "which redirects lead to X".

NOT FOR: All incoming links (use findlink_backlinks).

PARAMETERS:
- title: Target page title (required)

RETURNS: Redirect titles from the first result page (up to 500).`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_page_links",
		Method:   "PageLinks",
		Title:    "Outgoing Links",
		Category: "links",
		Description: `List the article links found on one or more pages.

USE WHEN: User asks "what does X link to", "does page X already link to Y".

NOT FOR: Incoming links (use findlink_backlinks).

PARAMETERS:
- titles: Page titles (required, any number; queried 50 at a time)

RETURNS: Map of page title to the article titles it links to. Pages without links are omitted.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// TITLE TOOLS
	// ==========================================================================
	{
		Name:     "findlink_resolve_title",
		Method:   "ResolveTitle",
		Title:    "Resolve Title",
		Category: "titles",
		Description: `Check that a page exists and follow its redirect.

USE WHEN: User asks "does X exist", "where does X redirect", "what is the canonical title of X".

NOT FOR: Fuzzy title matching or search.

PARAMETERS:
- title: Page title (required)

RETURNS: The page title, the redirect target (first letter cased like the input) and the resolved title. A missing page is an error.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_find_disambig",
		Method:   "FindDisambig",
		Title:    "Find Disambiguation Pages",
		Category: "titles",
		Description: `Tell which of the given titles are disambiguation pages.

USE WHEN: User asks "is X a disambiguation page", "filter out disambiguation pages from this list".

NOT FOR: Resolving redirects (use findlink_resolve_title).

PARAMETERS:
- titles: Page titles (required, any number; queried 50 at a time)

RETURNS: The disambiguation titles in input order, using the wiki's normalized spelling.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_all_pages",
		Method:   "AllPages",
		Title:    "Titles by Prefix",
		Category: "titles",
		Description: `List article titles that start with a prefix.

USE WHEN: User asks "which articles start with X", "are there longer titles containing X".

NOT FOR: Category names (use findlink_category_start).

PARAMETERS:
- prefix: Title prefix (required). The exact title is excluded.

RETURNS: Up to 500 non-redirect article titles.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_category_start",
		Method:   "CategoryStart",
		Title:    "Categories by Prefix",
		Category: "titles",
		Description: `List category names that start with a prefix.

USE WHEN: User asks "which categories start with X", "find a category for X".

NOT FOR: Members of a category (use findlink_category_members).

PARAMETERS:
- prefix: Category name prefix without the Category: namespace (required)

RETURNS: Up to 500 category titles.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_category_members",
		Method:   "CategoryMembers",
		Title:    "Category Members",
		Category: "titles",
		Description: `List the articles in a category.

USE WHEN: User asks "what is in category X", "list articles in Category:X".

NOT FOR: Finding category names (use findlink_category_start).

PARAMETERS:
- category: Category title including the Category: prefix (required)

RETURNS: Up to 500 article titles.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// CONTENT TOOLS
	// ==========================================================================
	{
		Name:     "findlink_get_content",
		Method:   "GetContent",
		Title:    "Get Wikitext",
		Category: "content",
		Description: `Fetch the current wikitext of an article.

USE WHEN: User asks "show me the source of X", "where in X is Y mentioned".

NOT FOR: Previewing a change (use findlink_diff).

PARAMETERS:
- title: Article title (required)

RETURNS: Wikitext and the timestamp of the current revision.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "findlink_diff",
		Method:   "Diff",
		Title:    "Preview Diff",
		Category: "content",
		Description: `Preview how a proposed section text differs from the current article. Nothing is saved.

USE WHEN: User asks "show the diff if I add this link", "preview my change to X".

NOT FOR: Saving edits (not supported).

PARAMETERS:
- title: Article title (required)
- section: Section number (default 0, the lead)
- text: Proposed wikitext of that section (required)

RETURNS: Server-rendered diff rows as an HTML table fragment.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
}
