package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"TabSorter/internal/consolidate"
	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
)

// OrganizerDeps wires a pipeline to its tab input and its grouping output.
type OrganizerDeps struct {
	Pipeline     *Pipeline
	Consolidator *consolidate.Consolidator
	Sink         ports.GroupSink
	Logger       *slog.Logger
}

// Outcome is a finished organize call: the raw run result and the
// consolidated groups that were published.
type Outcome struct {
	Result
	WindowID     string
	Consolidated map[string][]int
}

// Organizer runs at most one pipeline per window at a time. Runs for different
// windows are serialized because they share one cache snapshot.
type Organizer struct {
	pipeline     *Pipeline
	consolidator *consolidate.Consolidator
	sink         ports.GroupSink
	logger       *slog.Logger

	flights singleflight.Group
	mu      sync.Mutex
}

// NewOrganizer constructs the organize use case.
func NewOrganizer(deps OrganizerDeps) *Organizer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Organizer{
		pipeline:     deps.Pipeline,
		consolidator: deps.Consolidator,
		sink:         deps.Sink,
		logger:       logger,
	}
}

// Organize loads the tabs of window, classifies them, consolidates the labels
// and publishes the groups. Concurrent calls for the same window share one run.
func (o *Organizer) Organize(ctx context.Context, windowID string, source ports.TabSource) (Outcome, error) {
	v, err, shared := o.flights.Do(windowID, func() (any, error) {
		return o.organize(ctx, windowID, source)
	})
	if err != nil {
		return Outcome{}, err
	}
	if shared {
		o.logger.Debug("joined in-flight run", "window", windowID)
	}
	return v.(Outcome), nil
}

func (o *Organizer) organize(ctx context.Context, windowID string, source ports.TabSource) (Outcome, error) {
	if o.pipeline == nil || source == nil {
		return Outcome{WindowID: windowID, Consolidated: map[string][]int{}}, nil
	}

	tabs, err := source.Tabs(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load tabs for window %s: %w", windowID, err)
	}

	o.mu.Lock()
	res, err := o.pipeline.Run(ctx, tabs)
	o.mu.Unlock()
	if err != nil {
		return Outcome{}, fmt.Errorf("classify window %s: %w", windowID, err)
	}

	groups := res.Groups
	if o.consolidator != nil {
		groups = o.consolidator.Consolidate(groups)
	}
	out := Outcome{Result: res, WindowID: windowID, Consolidated: groups}

	if o.sink == nil || len(groups) == 0 {
		return out, nil
	}
	if err := o.sink.Publish(ctx, domain.Grouping{WindowID: windowID, Groups: groups}); err != nil {
		return out, fmt.Errorf("publish groups for window %s: %w", windowID, err)
	}
	return out, nil
}
