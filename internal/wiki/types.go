// Package wiki implements the MediaWiki query protocol: decode-retrying fetches,
// continuation-driven pagination, title batching and reply classification.
package wiki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
)

// Reply is one decoded API response. Query is kept raw so each operation
// decodes only the lists it asked for.
type Reply struct {
	BatchComplete bool            `json:"batchcomplete"`
	Continue      Continuation    `json:"continue"`
	Query         json.RawMessage `json:"query"`
	Error         *APIErrorDoc    `json:"error"`
	Warnings      json.RawMessage `json:"warnings"`
}

// DecodeQuery unmarshals the query object into v. A reply without a query
// object leaves v untouched.
func (r *Reply) DecodeQuery(v any) error {
	if len(r.Query) == 0 || bytes.Equal(r.Query, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(r.Query, v); err != nil {
		return fmt.Errorf("decode query object: %w", err)
	}
	return nil
}

// QueryDoc decodes the query object.
func (r *Reply) QueryDoc() (*QueryDoc, error) {
	var doc QueryDoc
	if err := r.DecodeQuery(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Continuation is the reply's continue object. Values are opaque tokens;
// numeric offsets such as sroffset are kept in their decimal form.
type Continuation map[string]string

// UnmarshalJSON accepts string, number and boolean values.
func (c *Continuation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}
	out := make(Continuation, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			out[k] = n.String()
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out[k] = strconv.FormatBool(b)
			continue
		}
		return fmt.Errorf("continue.%s: unsupported value %s", k, v)
	}
	*c = out
	return nil
}

// APIErrorDoc is the error object MediaWiki returns instead of a query.
type APIErrorDoc struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// Err converts the document into an *errors.APIError.
func (d *APIErrorDoc) Err() error {
	return &ferrors.APIError{Code: d.Code, Info: d.Info}
}

// QueryDoc holds the lists and page documents a query can return.
type QueryDoc struct {
	Normalized      []FromTo          `json:"normalized"`
	Redirects       []FromTo          `json:"redirects"`
	Pages           []PageDoc         `json:"pages"`
	SearchInfo      *SearchInfo       `json:"searchinfo"`
	Search          []SearchDoc       `json:"search"`
	Backlinks       []Backlink        `json:"backlinks"`
	AllPages        []TitleDoc        `json:"allpages"`
	CategoryMembers []TitleDoc        `json:"categorymembers"`
	RecentChanges   []RecentChangeDoc `json:"recentchanges"`
}

// FromTo is a normalization or redirect record.
type FromTo struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Fragment string `json:"tofragment,omitempty"`
}

// PageDoc is one page document from a prop= query.
type PageDoc struct {
	PageID        int           `json:"pageid"`
	NS            int           `json:"ns"`
	Title         string        `json:"title"`
	Missing       bool          `json:"missing"`
	Invalid       bool          `json:"invalid"`
	InvalidReason string        `json:"invalidreason"`
	Redirect      bool          `json:"redirect"`
	Templates     []TitleDoc    `json:"templates"`
	Links         []TitleDoc    `json:"links"`
	Revisions     []RevisionDoc `json:"revisions"`
}

// TitleDoc is the common {ns, title} entry of lists and page props.
type TitleDoc struct {
	NS    int    `json:"ns"`
	Title string `json:"title"`
}

// RevisionDoc is a revision entry; Diff is only present for rvdifftotext queries.
type RevisionDoc struct {
	Timestamp string             `json:"timestamp"`
	Slots     map[string]SlotDoc `json:"slots"`
	Diff      *DiffDoc           `json:"diff"`
}

// SlotDoc carries revision content.
type SlotDoc struct {
	ContentModel string `json:"contentmodel"`
	Content      string `json:"content"`
}

// DiffDoc is the server-computed diff. Body is an HTML table fragment.
type DiffDoc struct {
	Body string `json:"body"`
}

// SearchInfo is the search summary.
type SearchInfo struct {
	TotalHits int `json:"totalhits"`
}

// SearchDoc is one full-text search hit.
type SearchDoc struct {
	NS      int    `json:"ns"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Backlink is one entry of list=backlinks. IsRedirect is set when the
// linking page is itself a redirect.
type Backlink struct {
	Title      string `json:"title"`
	IsRedirect bool   `json:"redirect"`
}

// RecentChangeDoc is one entry of list=recentchanges.
type RecentChangeDoc struct {
	NS        int    `json:"ns"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Comment   string `json:"comment"`
}
