package wiki

import (
	"strings"
	"unicode"
	"unicode/utf8"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
)

// Classification outcomes recorded in metrics.
const (
	OutcomeMissing        = "missing"
	OutcomeRedirect       = "redirect"
	OutcomeArticle        = "article"
	OutcomeDisambiguation = "disambiguation"
	OutcomeBadTitle       = "bad_title"
	OutcomeProtocol       = "protocol"
)

// FirstPage returns the first page document of a prop= query.
// A missing page yields *errors.MissingPageError and no document.
func FirstPage(q *QueryDoc) (PageDoc, error) {
	if len(q.Pages) == 0 {
		metrics.RecordClassification(OutcomeProtocol)
		return PageDoc{}, ferrors.NewProtocolError("first page", "reply has no page documents")
	}
	page := q.Pages[0]
	if page.Missing {
		metrics.RecordClassification(OutcomeMissing)
		return PageDoc{}, ferrors.NewMissingPageError(page.Title)
	}
	return page, nil
}

// ResolveRedirect interprets the redirect records of a single-title query.
// No record means the title resolves to itself (ok is false). Exactly one
// record yields its target. More than one record is a protocol violation.
func ResolveRedirect(q *QueryDoc) (target string, ok bool, err error) {
	switch len(q.Redirects) {
	case 0:
		return "", false, nil
	case 1:
		metrics.RecordClassification(OutcomeRedirect)
		return q.Redirects[0].To, true, nil
	default:
		metrics.RecordClassification(OutcomeProtocol)
		pairs := make([]string, len(q.Redirects))
		for i, r := range q.Redirects {
			pairs[i] = r.From + " -> " + r.To
		}
		return "", false, ferrors.NewProtocolError("resolve redirect",
			"expected at most one redirect record, got %d: %s", len(q.Redirects), strings.Join(pairs, "; "))
	}
}

// DisambigSet holds the template titles that mark a disambiguation page.
type DisambigSet map[string]struct{}

// NewDisambigSet builds a set from template titles such as "Template:Dab".
func NewDisambigSet(templates []string) DisambigSet {
	s := make(DisambigSet, len(templates))
	for _, t := range templates {
		t = strings.TrimSpace(t)
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// IsDisambig reports whether the page transcludes one of the set's templates.
// Only template-namespace entries are considered.
func (s DisambigSet) IsDisambig(page PageDoc) bool {
	for _, t := range page.Templates {
		if t.NS != 10 {
			continue
		}
		if _, ok := s[t.Title]; ok {
			return true
		}
	}
	return false
}

// BacklinkSet is the split of a backlink listing into articles and redirects.
type BacklinkSet struct {
	Articles  []string `json:"articles"`
	Redirects []string `json:"redirects"`
}

// PartitionBacklinks splits a fully paginated backlink listing. Titles keep
// their first-seen order and duplicates are collapsed; a title is never in
// both lists (the first occurrence decides).
func PartitionBacklinks(links []Backlink) BacklinkSet {
	set := BacklinkSet{Articles: []string{}, Redirects: []string{}}
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if _, dup := seen[l.Title]; dup {
			continue
		}
		seen[l.Title] = struct{}{}
		if l.IsRedirect {
			set.Redirects = append(set.Redirects, l.Title)
		} else {
			set.Articles = append(set.Articles, l.Title)
		}
	}
	return set
}

// RequireRedirectMarkers checks that every entry of a redirect-filtered
// backlink listing carries the redirect marker.
func RequireRedirectMarkers(links []Backlink) error {
	for _, l := range links {
		if !l.IsRedirect {
			metrics.RecordClassification(OutcomeProtocol)
			return ferrors.NewProtocolError("redirects", "%q listed without the redirect marker", l.Title)
		}
	}
	return nil
}

// MatchCase gives target the case of query's first letter. If the query does
// not start with a cased letter, target is returned unchanged.
func MatchCase(query, target string) string {
	q, _ := utf8.DecodeRuneInString(query)
	switch {
	case unicode.IsUpper(q):
		return UpperFirst(target)
	case unicode.IsLower(q):
		return LowerFirst(target)
	default:
		return target
	}
}

// UpperFirst upper-cases the first letter of s.
func UpperFirst(s string) string {
	return mapFirst(s, unicode.ToUpper)
}

// LowerFirst lower-cases the first letter of s.
func LowerFirst(s string) string {
	return mapFirst(s, unicode.ToLower)
}

func mapFirst(s string, fn func(rune) rune) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(fn(r)) + s[size:]
}
