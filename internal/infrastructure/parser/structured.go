package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"TabSorter/internal/domain"
	"TabSorter/internal/tabsource"
)

// document accepts either a bare list of tabs or a list of windows.
type document struct {
	Tabs    []domain.Tab `json:"tabs" yaml:"tabs"`
	Windows []struct {
		ID   string       `json:"id" yaml:"id"`
		Tabs []domain.Tab `json:"tabs" yaml:"tabs"`
	} `json:"windows" yaml:"windows"`
}

// tabsFor returns the tabs of window, or every tab when window is empty.
func (d document) tabsFor(window string) ([]domain.Tab, error) {
	if len(d.Windows) == 0 {
		return d.Tabs, nil
	}
	var out []domain.Tab
	for _, w := range d.Windows {
		if window == "" || w.ID == window {
			out = append(out, w.Tabs...)
		}
	}
	if window != "" && out == nil {
		return nil, fmt.Errorf("window %q not found", window)
	}
	return out, nil
}

// JSONReader reads tab lists exported as JSON.
type JSONReader struct{}

var _ tabsource.Reader = JSONReader{}

// Name identifies the format inside the registry.
func (JSONReader) Name() string { return "json" }

// Extensions lists the file extensions handled by this reader.
func (JSONReader) Extensions() []string { return []string{".json"} }

// Read decodes `[...]`, `{"tabs": [...]}` or `{"windows": [{"id", "tabs"}]}`.
func (JSONReader) Read(_ context.Context, r io.Reader, req tabsource.Request) ([]domain.Tab, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var list []domain.Tab
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode json tabs: %w", err)
	}
	return doc.tabsFor(req.WindowID)
}

// YAMLReader reads tab lists kept as YAML.
type YAMLReader struct{}

var _ tabsource.Reader = YAMLReader{}

// Name identifies the format inside the registry.
func (YAMLReader) Name() string { return "yaml" }

// Extensions lists the file extensions handled by this reader.
func (YAMLReader) Extensions() []string { return []string{".yaml", ".yml"} }

// Read decodes the same shapes as JSONReader.
func (YAMLReader) Read(_ context.Context, r io.Reader, req tabsource.Request) ([]domain.Tab, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}

	var list []domain.Tab
	if err := yaml.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml tabs: %w", err)
	}
	return doc.tabsFor(req.WindowID)
}

// DefaultRegistry registers every built-in format.
func DefaultRegistry() *tabsource.Registry {
	reg := tabsource.NewRegistry()
	reg.Register(HTMLReader{})
	reg.Register(JSONReader{})
	reg.Register(YAMLReader{})
	return reg
}
