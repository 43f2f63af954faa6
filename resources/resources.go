// Package resources defines the resource provider contract backing
// resources/list and resources/read, plus in-memory and directory-backed
// implementations.
package resources

import (
	"context"
	"errors"
	"strconv"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

// ErrNotFound is returned by Read when the URI names no known resource.
var ErrNotFound = errors.New("resource not found")

// Page is one page of a resource listing. A nil NextCursor marks the final
// page.
type Page struct {
	Resources  []mcp.Resource
	NextCursor *string
}

// Provider exposes a listable, readable resource collection.
// Implementations must be safe for concurrent use.
type Provider interface {
	// List returns one page of resources starting at the cursor. An
	// unrecognized cursor restarts from the beginning.
	List(ctx context.Context, cursor *string) (Page, error)

	// Read returns the contents of the resource at uri, or an error
	// wrapping ErrNotFound.
	Read(ctx context.Context, uri string) ([]mcp.ResourceContents, error)
}

// pageSlice paginates a slice using an integer cursor (offset as decimal).
func pageSlice(all []mcp.Resource, pageSize int, cursor *string) Page {
	start := 0
	if cursor != nil && *cursor != "" {
		if n, err := strconv.Atoi(*cursor); err == nil && n >= 0 && n <= len(all) {
			start = n
		}
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	items := make([]mcp.Resource, end-start)
	copy(items, all[start:end])

	if end < len(all) {
		next := strconv.Itoa(end)
		return Page{Resources: items, NextCursor: &next}
	}
	return Page{Resources: items}
}
