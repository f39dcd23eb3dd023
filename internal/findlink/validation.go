package findlink

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
)

var (
	parensRegex = regexp.MustCompile(`\s*\([^()]*\)`)
	spaceRegex  = regexp.MustCompile(`[\s_]+`)
)

// namespaces are the English Wikipedia namespace names, subject and talk.
var namespaces = []string{
	"Talk", "User", "User talk", "Wikipedia", "Wikipedia talk", "WP", "WT",
	"File", "File talk", "Image", "Image talk", "MediaWiki", "MediaWiki talk",
	"Template", "Template talk", "Help", "Help talk", "Category", "Category talk",
	"Portal", "Portal talk", "Draft", "Draft talk", "TimedText", "TimedText talk",
	"Module", "Module talk", "Special", "Media", "Project", "Project talk",
}

// StripParens removes parenthesised qualifiers, e.g. "Mercury (planet)" becomes "Mercury".
func StripParens(s string) string {
	return strings.TrimSpace(parensRegex.ReplaceAllString(s, ""))
}

// UpperFirst upper-cases the first letter of s.
func UpperFirst(s string) string {
	return wiki.UpperFirst(s)
}

// CaseFlipFirst flips the case of the first letter of s.
func CaseFlipFirst(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	switch {
	case unicode.IsUpper(r):
		return wiki.LowerFirst(s)
	case unicode.IsLower(r):
		return wiki.UpperFirst(s)
	default:
		return s
	}
}

// WikiSpaceNorm turns underscores and runs of whitespace into single spaces and trims.
func WikiSpaceNorm(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// StartsWithNamespace reports whether s has a namespace prefix such as "Category:".
func StartsWithNamespace(s string) bool {
	prefix, _, ok := strings.Cut(s, ":")
	if !ok {
		return false
	}
	prefix = WikiSpaceNorm(prefix)
	for _, ns := range namespaces {
		if strings.EqualFold(prefix, ns) {
			return true
		}
	}
	return false
}

// NormalizeQuery undoes double URL encoding and converts a URL-style title
// ("Albert_Einstein") into its display form.
func NormalizeQuery(q string) string {
	if strings.Contains(q, "%") {
		if unescaped, err := url.PathUnescape(q); err == nil {
			q = unescaped
		}
	}
	return WikiSpaceNorm(q)
}

// ValidateTitle checks a subject title before it is sent to the wiki.
func ValidateTitle(field, title string) error {
	if strings.TrimSpace(title) == "" {
		return ferrors.NewValidationError(field, "", "title is required")
	}
	if len(title) > MaxTitleBytes {
		return ferrors.NewValidationError(field, truncate(title, 32)+"...", "title too long (max 255 bytes)")
	}
	return nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ValidateArticleTitle also rejects titles outside the article namespace.
func ValidateArticleTitle(field, title string) error {
	if err := ValidateTitle(field, title); err != nil {
		return err
	}
	if StartsWithNamespace(title) {
		return ferrors.NewValidationError(field, title, "not in the article namespace")
	}
	return nil
}

// ValidateTitles checks every title of a batched query.
func ValidateTitles(field string, titles []string) error {
	if len(titles) == 0 {
		return ferrors.ErrNoTitles
	}
	for _, t := range titles {
		if err := ValidateTitle(field, t); err != nil {
			return err
		}
	}
	return nil
}
