package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
)

// Format names accepted by NewWriterSink.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// WriterSink prints groupings as a text listing or one JSON document per line.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	titles map[int]string
}

var _ ports.GroupSink = (*WriterSink)(nil)

// NewWriterSink writes to w in format (text when unknown).
func NewWriterSink(w io.Writer, format string) *WriterSink {
	if format != FormatJSON {
		format = FormatText
	}
	return &WriterSink{w: w, format: format}
}

// WithTitles lets the text listing show tab titles next to ids.
func (s *WriterSink) WithTitles(tabs []domain.Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = make(map[int]string, len(tabs))
	for _, t := range tabs {
		s.titles[t.ID] = t.Title
	}
}

// Publish writes one grouping.
func (s *WriterSink) Publish(_ context.Context, grouping domain.Grouping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == FormatJSON {
		if err := json.NewEncoder(s.w).Encode(grouping); err != nil {
			return fmt.Errorf("encode grouping: %w", err)
		}
		return nil
	}

	labels := make([]string, 0, len(grouping.Groups))
	for label := range grouping.Groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	if grouping.WindowID != "" {
		if _, err := fmt.Fprintf(s.w, "window %s\n", grouping.WindowID); err != nil {
			return fmt.Errorf("write grouping: %w", err)
		}
	}
	for _, label := range labels {
		ids := grouping.Groups[label]
		if _, err := fmt.Fprintf(s.w, "%s (%d)\n", label, len(ids)); err != nil {
			return fmt.Errorf("write grouping: %w", err)
		}
		for _, id := range ids {
			line := fmt.Sprintf("  #%d", id)
			if title, ok := s.titles[id]; ok {
				line += "  " + title
			}
			if _, err := fmt.Fprintln(s.w, line); err != nil {
				return fmt.Errorf("write grouping: %w", err)
			}
		}
	}
	return nil
}
