package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"TabSorter/internal/consolidate"
	"TabSorter/internal/domain"
	"TabSorter/internal/taxonomy"
)

type staticSource []domain.Tab

func (s staticSource) Tabs(context.Context) ([]domain.Tab, error) { return s, nil }

type blockingSource struct {
	tabs    []domain.Tab
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingSource) Tabs(context.Context) ([]domain.Tab, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
	}
	<-s.release
	return s.tabs, nil
}

type recordingSink struct {
	mu        sync.Mutex
	groupings []domain.Grouping
	err       error
}

func (s *recordingSink) Publish(_ context.Context, g domain.Grouping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupings = append(s.groupings, g)
	return s.err
}

func newTestOrganizer(t *testing.T, sink *recordingSink) *Organizer {
	t.Helper()
	k := taxonomy.Default()
	deps := OrganizerDeps{
		Pipeline:     newTestPipeline(t, PipelineDeps{Knowledge: k}),
		Consolidator: consolidate.New(k),
	}
	if sink != nil {
		deps.Sink = sink
	}
	return NewOrganizer(deps)
}

func TestOrganizePublishesConsolidatedGroups(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	o := newTestOrganizer(t, sink)
	source := staticSource{
		domain.NewTab(1, "golang/go", "https://github.com/golang/go"),
		domain.NewTab(2, "Random thoughts", "https://blog.example.xyz/post"),
		domain.NewTab(3, "Go issues", "https://github.com/golang/go/issues"),
	}

	out, err := o.Organize(context.Background(), "w1", source)
	if err != nil {
		t.Fatalf("Organize returned error: %v", err)
	}

	want := map[string][]int{"Development": {1, 3}, "Work": {2}}
	if diff := cmp.Diff(want, out.Consolidated); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
	if out.WindowID != "w1" || out.RunID == "" {
		t.Fatalf("unexpected outcome header %q %q", out.WindowID, out.RunID)
	}
	if len(sink.groupings) != 1 || sink.groupings[0].WindowID != "w1" {
		t.Fatalf("expected one published grouping, got %+v", sink.groupings)
	}
	if diff := cmp.Diff(want, sink.groupings[0].Groups); diff != "" {
		t.Fatalf("published groups mismatch (-want +got):\n%s", diff)
	}
}

func TestOrganizeEmptyWindowSkipsSink(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	out, err := newTestOrganizer(t, sink).Organize(context.Background(), "w1", staticSource{})
	if err != nil {
		t.Fatalf("Organize returned error: %v", err)
	}
	if len(out.Consolidated) != 0 || len(sink.groupings) != 0 {
		t.Fatalf("empty window should publish nothing: %+v %+v", out.Consolidated, sink.groupings)
	}
}

type failingSource struct{}

func (failingSource) Tabs(context.Context) ([]domain.Tab, error) {
	return nil, errors.New("export unreadable")
}

func TestOrganizeErrors(t *testing.T) {
	t.Parallel()

	if _, err := newTestOrganizer(t, nil).Organize(context.Background(), "w1", failingSource{}); err == nil {
		t.Fatal("expected source error")
	}

	sink := &recordingSink{err: errors.New("webhook down")}
	source := staticSource{domain.NewTab(1, "golang/go", "https://github.com/golang/go")}
	if _, err := newTestOrganizer(t, sink).Organize(context.Background(), "w1", source); err == nil {
		t.Fatal("expected sink error")
	}
}

func TestOrganizeSharesInFlightRun(t *testing.T) {
	t.Parallel()

	o := newTestOrganizer(t, nil)
	source := &blockingSource{
		tabs:    []domain.Tab{domain.NewTab(1, "golang/go", "https://github.com/golang/go")},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	var wg sync.WaitGroup
	results := make([]Outcome, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = o.Organize(context.Background(), "w1", source)
	}()
	<-source.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = o.Organize(context.Background(), "w1", source)
	}()
	time.Sleep(50 * time.Millisecond)
	close(source.release)
	wg.Wait()

	if got := source.calls.Load(); got != 1 {
		t.Fatalf("concurrent calls for one window should share a run, source read %d times", got)
	}
	if results[0].RunID != results[1].RunID {
		t.Fatalf("both callers should see the same run: %q vs %q", results[0].RunID, results[1].RunID)
	}
}

type immediateDriver struct {
	started bool
	stopped bool
}

func (d *immediateDriver) Start(_ context.Context, job func(time.Time)) error {
	d.started = true
	job(time.Now())
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsOrganize(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	driver := &immediateDriver{}
	source := staticSource{domain.NewTab(1, "golang/go", "https://github.com/golang/go")}
	s := NewScheduler(driver, newTestOrganizer(t, sink), "w9", source, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if !driver.started || !driver.stopped {
		t.Fatalf("driver lifecycle not driven: %+v", driver)
	}
	if len(sink.groupings) != 1 || sink.groupings[0].WindowID != "w9" {
		t.Fatalf("scheduled job should publish once, got %+v", sink.groupings)
	}
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, "w1", nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}
