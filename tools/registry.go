// Package tools provides a metadata-driven registry for MCP tool definitions.
// Tools are defined declaratively in AllTools and registered through
// type-safe handlers bound to findlink.Client methods.
package tools

// ToolSpec defines a tool's metadata for declarative registration.
// Each spec maps to a findlink.Client MCP method with matching Args/Result types.
type ToolSpec struct {
	// Name is the MCP tool name (e.g., "findlink_candidates")
	Name string

	// Method is the client method name without the MCP suffix (e.g., "Candidates")
	Method string

	// Description is the tool description shown to LLMs
	Description string

	// Title is the human-readable tool title for annotations
	Title string

	// Category groups tools logically (search, links, titles, content)
	Category string

	// ReadOnly indicates the tool doesn't modify the wiki
	ReadOnly bool

	// Destructive indicates the tool can delete or overwrite data
	Destructive bool

	// Idempotent indicates repeated calls have the same effect
	Idempotent bool

	// OpenWorld indicates the tool accesses external resources
	OpenWorld bool
}

// Categories lists the tool categories in display order.
var Categories = []string{"search", "links", "titles", "content"}

// ByCategory returns the specs of one category, in AllTools order.
func ByCategory(category string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}
