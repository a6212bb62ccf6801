package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
	"TabSorter/internal/tabsource"
)

// FileSource implements ports.TabSource over a local export file or an HTTP
// URL, decoded by a registered reader.
type FileSource struct {
	registry *tabsource.Registry
	format   string
	req      tabsource.Request
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.TabSource = (*FileSource)(nil)

// NewFileSource wires a reader registry with one location. format may be
// empty to pick the reader by extension.
func NewFileSource(reg *tabsource.Registry, format string, req tabsource.Request, log *slog.Logger) *FileSource {
	return &FileSource{
		registry: reg,
		format:   format,
		req:      req,
		client:   &http.Client{Timeout: 20 * time.Second},
		logger:   log,
	}
}

// Location returns the file path or URL the source reads.
func (s *FileSource) Location() string { return s.req.Location }

// Tabs loads and normalizes the working set.
func (s *FileSource) Tabs(ctx context.Context) ([]domain.Tab, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("tab format registry is not configured")
	}

	reader, err := s.registry.ResolveFor(s.format, s.req.Location)
	if err != nil {
		return nil, err
	}
	s.debug("load tabs", "location", s.req.Location, "format", reader.Name(), "window", s.req.WindowID)

	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	tabs, err := reader.Read(ctx, body, s.req)
	if err != nil {
		return nil, fmt.Errorf("read %s tabs from %s: %w", reader.Name(), s.req.Location, err)
	}

	tabs = tabsource.Normalize(tabs)
	s.debug("tabs loaded", "count", len(tabs))
	return tabs, nil
}

func (s *FileSource) open(ctx context.Context) (io.ReadCloser, error) {
	if !isWebLink(s.req.Location) {
		f, err := os.Open(s.req.Location)
		if err != nil {
			return nil, fmt.Errorf("open tab file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.req.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TabSorter/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request tab export: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("tab export returned %s", resp.Status)
	}
	return resp.Body, nil
}

func (s *FileSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// StaticSource serves a fixed working set.
type StaticSource []domain.Tab

var _ ports.TabSource = StaticSource(nil)

// Tabs returns the normalized tabs.
func (s StaticSource) Tabs(context.Context) ([]domain.Tab, error) {
	return tabsource.Normalize(s), nil
}

// SplitFormat accepts "format:location" and returns both parts; a bare
// location yields an empty format.
func SplitFormat(arg string) (format, location string) {
	name, rest, ok := strings.Cut(arg, ":")
	if ok && !strings.HasPrefix(rest, "//") && len(name) > 1 {
		return name, rest
	}
	return "", arg
}
