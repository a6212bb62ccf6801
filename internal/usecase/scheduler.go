package usecase

import (
	"context"
	"log/slog"
	"time"

	"TabSorter/internal/ports"
)

// Scheduler wires a trigger driver with the organize use case for one window.
type Scheduler struct {
	driver    ports.Scheduler
	organizer *Organizer
	windowID  string
	source    ports.TabSource
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring organize runs.
func NewScheduler(driver ports.Scheduler, organizer *Organizer, windowID string, source ports.TabSource, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		driver:    driver,
		organizer: organizer,
		windowID:  windowID,
		source:    source,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start registers the organize job with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.organizer == nil {
		return nil
	}

	job := func(trigger time.Time) {
		out, err := s.organizer.Organize(ctx, s.windowID, s.source)
		if err != nil {
			s.logger.Error("scheduled run failed", "window", s.windowID, "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled run finished", "window", s.windowID, "run_id", out.RunID, "groups", len(out.Consolidated))
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
