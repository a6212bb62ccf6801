// Package ratelimit tracks the request budget of a constrained provider with
// rolling minute, hour and day windows and a minimum gap between requests.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"TabSorter/internal/ports"
)

// Limits bounds the request rate. Zero disables a window.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
	Cooldown  time.Duration
}

// Tracker implements ports.RateLimiter. It is safe for reuse across runs in
// one process.
type Tracker struct {
	mu       sync.Mutex
	limits   Limits
	requests []time.Time
	now      func() time.Time
}

var _ ports.RateLimiter = (*Tracker)(nil)

// NewTracker creates a tracker; now may be nil to use the wall clock.
func NewTracker(limits Limits, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{limits: limits, now: now}
}

// CanMakeRequest reports whether a request may be sent now, and why not.
func (t *Tracker) CanMakeRequest() ports.Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)

	if n := len(t.requests); n > 0 && t.limits.Cooldown > 0 {
		if wait := t.limits.Cooldown - now.Sub(t.requests[n-1]); wait > 0 {
			return ports.Decision{Reason: fmt.Sprintf("cooldown: wait %s", wait.Round(time.Millisecond))}
		}
	}

	windows := []struct {
		name  string
		span  time.Duration
		limit int
	}{
		{"minute", time.Minute, t.limits.PerMinute},
		{"hour", time.Hour, t.limits.PerHour},
		{"day", 24 * time.Hour, t.limits.PerDay},
	}
	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		if used := t.countLocked(now, w.span); used >= w.limit {
			return ports.Decision{Reason: fmt.Sprintf("%s limit reached (%d/%d)", w.name, used, w.limit)}
		}
	}

	return ports.Decision{Allowed: true}
}

// RecordRequest counts a request sent now.
func (t *Tracker) RecordRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)
	t.requests = append(t.requests, now)
}

// UsageStats summarizes the rolling windows.
func (t *Tracker) UsageStats() ports.Usage {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now)
	u := ports.Usage{
		LastMinute: t.countLocked(now, time.Minute),
		LastHour:   t.countLocked(now, time.Hour),
		LastDay:    len(t.requests),
	}
	if t.limits.PerDay > 0 {
		u.RemainingToday = max(0, t.limits.PerDay-u.LastDay)
	} else {
		u.RemainingToday = -1
	}
	return u
}

func (t *Tracker) countLocked(now time.Time, span time.Duration) int {
	cutoff := now.Add(-span)
	n := 0
	for i := len(t.requests) - 1; i >= 0 && t.requests[i].After(cutoff); i-- {
		n++
	}
	return n
}

func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	drop := 0
	for drop < len(t.requests) && !t.requests[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		t.requests = append(t.requests[:0], t.requests[drop:]...)
	}
}
