package resources

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

// Static is a mutable in-memory resource collection.
type Static struct {
	mu       sync.RWMutex
	byURI    map[string]staticEntry
	pageSize int
}

type staticEntry struct {
	resource mcp.Resource
	contents []mcp.ResourceContents
}

var _ Provider = (*Static)(nil)

// NewStatic builds an empty collection. A non-positive pageSize falls back
// to 50.
func NewStatic(pageSize int) *Static {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Static{
		byURI:    make(map[string]staticEntry),
		pageSize: pageSize,
	}
}

// Add registers a resource with its contents, replacing any entry at the
// same URI.
func (s *Static) Add(resource mcp.Resource, contents ...mcp.ResourceContents) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byURI[resource.URI] = staticEntry{resource: resource, contents: contents}
}

// AddText registers a text resource in one call.
func (s *Static) AddText(uri, name, mimeType, text string) {
	s.Add(
		mcp.Resource{URI: uri, Name: name, MimeType: mimeType},
		mcp.ResourceContents{URI: uri, MimeType: mimeType, Text: text},
	)
}

// Remove drops the resource at uri, reporting whether it existed.
func (s *Static) Remove(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byURI[uri]
	delete(s.byURI, uri)
	return ok
}

// List implements Provider. Resources are ordered by URI.
func (s *Static) List(ctx context.Context, cursor *string) (Page, error) {
	s.mu.RLock()
	all := make([]mcp.Resource, 0, len(s.byURI))
	for _, e := range s.byURI {
		all = append(all, e.resource)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].URI < all[j].URI })
	return pageSlice(all, s.pageSize, cursor), nil
}

// Read implements Provider.
func (s *Static) Read(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	s.mu.RLock()
	e, ok := s.byURI[uri]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	out := make([]mcp.ResourceContents, len(e.contents))
	copy(out, e.contents)
	return out, nil
}
