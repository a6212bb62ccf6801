// Package tabsource resolves tab export formats to their readers.
package tabsource

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"TabSorter/internal/domain"
)

// Request carries everything a reader needs to load one working set.
type Request struct {
	Location string
	WindowID string
	Options  map[string]string
}

// Reader decodes one export format into tabs.
type Reader interface {
	Name() string
	Extensions() []string
	Read(ctx context.Context, r io.Reader, req Request) ([]domain.Tab, error)
}

// Registry keeps a mapping from format names to their implementations.
type Registry struct {
	readers map[string]Reader
	byExt   map[string]string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: map[string]Reader{}, byExt: map[string]string{}}
}

// Register adds or replaces a reader implementation.
func (r *Registry) Register(reader Reader) {
	if r.readers == nil {
		r.readers = map[string]Reader{}
		r.byExt = map[string]string{}
	}
	r.readers[reader.Name()] = reader
	for _, ext := range reader.Extensions() {
		r.byExt[strings.ToLower(ext)] = reader.Name()
	}
}

// Resolve returns a reader by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Reader, error) {
	if reader, ok := r.readers[name]; ok {
		return reader, nil
	}
	return nil, fmt.Errorf("tab format %s is not registered", name)
}

// ResolveFor picks the reader named by format, or by the extension of
// location when format is empty.
func (r *Registry) ResolveFor(format, location string) (Reader, error) {
	if format != "" {
		return r.Resolve(format)
	}
	ext := strings.ToLower(filepath.Ext(strings.SplitN(location, "?", 2)[0]))
	if name, ok := r.byExt[ext]; ok {
		return r.Resolve(name)
	}
	return nil, fmt.Errorf("no tab format registered for %q", location)
}

// Normalize applies tab defaults and gives id-less tabs their 1-based
// position as id.
func Normalize(tabs []domain.Tab) []domain.Tab {
	out := make([]domain.Tab, len(tabs))
	for i, t := range tabs {
		id := t.ID
		if id == 0 {
			id = i + 1
		}
		out[i] = domain.NewTab(id, t.Title, t.URL)
	}
	return out
}
