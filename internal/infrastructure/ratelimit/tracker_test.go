package ratelimit

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"TabSorter/internal/ports"
)

type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)} }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCooldown(t *testing.T) {
	t.Parallel()

	c := newClock()
	tr := NewTracker(Limits{Cooldown: 4 * time.Second}, c.now)

	if !tr.CanMakeRequest().Allowed {
		t.Fatal("first request should be allowed")
	}
	tr.RecordRequest()

	c.advance(time.Second)
	d := tr.CanMakeRequest()
	if d.Allowed || !strings.HasPrefix(d.Reason, "cooldown") {
		t.Fatalf("request inside cooldown should be refused, got %+v", d)
	}

	c.advance(3 * time.Second)
	if !tr.CanMakeRequest().Allowed {
		t.Fatal("request after cooldown should be allowed")
	}
}

func TestMinuteWindow(t *testing.T) {
	t.Parallel()

	c := newClock()
	tr := NewTracker(Limits{PerMinute: 2}, c.now)
	for range 2 {
		tr.RecordRequest()
		c.advance(time.Second)
	}

	d := tr.CanMakeRequest()
	if d.Allowed || d.Reason != "minute limit reached (2/2)" {
		t.Fatalf("third request in a minute should be refused, got %+v", d)
	}

	c.advance(time.Minute)
	if !tr.CanMakeRequest().Allowed {
		t.Fatal("requests older than a minute should not count")
	}
}

func TestDayWindowAndUsage(t *testing.T) {
	t.Parallel()

	c := newClock()
	tr := NewTracker(Limits{PerMinute: 100, PerHour: 100, PerDay: 3}, c.now)
	for range 3 {
		tr.RecordRequest()
		c.advance(30 * time.Minute)
	}

	want := ports.Usage{LastMinute: 0, LastHour: 1, LastDay: 3, RemainingToday: 0}
	if diff := cmp.Diff(want, tr.UsageStats()); diff != "" {
		t.Fatalf("usage mismatch (-want +got):\n%s", diff)
	}
	if d := tr.CanMakeRequest(); d.Allowed || !strings.HasPrefix(d.Reason, "day limit") {
		t.Fatalf("daily cap should refuse, got %+v", d)
	}

	c.advance(24 * time.Hour)
	if !tr.CanMakeRequest().Allowed {
		t.Fatal("requests older than a day should be pruned")
	}
	if u := tr.UsageStats(); u.LastDay != 0 || u.RemainingToday != 3 {
		t.Fatalf("usage after a day should reset, got %+v", u)
	}
}

func TestNoDailyCap(t *testing.T) {
	t.Parallel()

	tr := NewTracker(Limits{}, nil)
	tr.RecordRequest()
	u := tr.UsageStats()
	if u.RemainingToday != -1 || u.LastMinute != 1 {
		t.Fatalf("unexpected usage without limits: %+v", u)
	}
	if !tr.CanMakeRequest().Allowed {
		t.Fatal("tracker without limits should always allow")
	}
}
