package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"TabSorter/internal/domain"
	"TabSorter/internal/infrastructure/storage"
)

func TestTTLTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		confidence float64
		want       time.Duration
	}{
		{0, 30 * time.Minute},
		{0.49, 30 * time.Minute},
		{0.5, 4 * time.Hour},
		{0.69, 4 * time.Hour},
		{0.7, 12 * time.Hour},
		{0.89, 12 * time.Hour},
		{0.9, 24 * time.Hour},
		{1, 24 * time.Hour},
	}
	for _, tc := range cases {
		if got := TTL(tc.confidence); got != tc.want {
			t.Fatalf("TTL(%v) = %v, want %v", tc.confidence, got, tc.want)
		}
	}
}

func TestTTLIsMonotonic(t *testing.T) {
	t.Parallel()

	prev := TTL(0)
	for i := 1; i <= 100; i++ {
		cur := TTL(float64(i) / 100)
		if cur < prev {
			t.Fatalf("TTL decreased at %v: %v < %v", float64(i)/100, cur, prev)
		}
		prev = cur
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := domain.CacheEntry{Category: "News", Confidence: 0.95, Timestamp: now.Add(-23 * time.Hour).UnixMilli()}
	stale := domain.CacheEntry{Category: "News", Confidence: 0.55, Timestamp: now.Add(-5 * time.Hour).UnixMilli()}

	if !IsValid(fresh, now) {
		t.Fatal("high-confidence entry within 24h should be valid")
	}
	if IsValid(stale, now) {
		t.Fatal("mid-confidence entry older than 4h should be expired")
	}
	if IsValid(domain.CacheEntry{Confidence: 1, Timestamp: now.UnixMilli()}, now) {
		t.Fatal("entry without category should be invalid")
	}
	if IsValid(domain.CacheEntry{Category: "News", Confidence: 1}, now) {
		t.Fatal("entry without timestamp should be invalid")
	}
}

func TestPersistAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := storage.NewMemoryStore()
	now := time.Now()

	s := New(kv)
	s.Put("https://github.com", domain.EntryFor(domain.Assignment{
		Category: "Development", Confidence: 0.9, Source: domain.SourcePreFilter,
	}, now))
	if !s.Dirty() {
		t.Fatal("store should be dirty after Put")
	}
	if err := s.Persist(ctx); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	if s.Dirty() {
		t.Fatal("store should be clean after Persist")
	}

	loaded := New(kv)
	if err := loaded.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	got, ok := loaded.Get("https://github.com")
	if !ok {
		t.Fatal("persisted entry missing")
	}
	want := domain.CacheEntry{
		Category:   "Development",
		Confidence: 0.9,
		Timestamp:  now.UnixMilli(),
		Source:     string(domain.SourcePreFilter),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

type brokenStore struct{ raw []byte }

func (b brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	if b.raw == nil {
		return nil, false, errors.New("store offline")
	}
	return b.raw, true, nil
}

func (brokenStore) Set(context.Context, map[string][]byte) error {
	return errors.New("store offline")
}

func TestLoadFailureLeavesEmptySnapshot(t *testing.T) {
	t.Parallel()

	for name, kv := range map[string]brokenStore{
		"offline": {},
		"corrupt": {raw: []byte("{not json")},
	} {
		s := New(kv)
		s.Put("k", domain.CacheEntry{Category: "News"})
		if err := s.Load(context.Background()); err == nil {
			t.Fatalf("%s: expected load error", name)
		}
		if s.Len() != 0 || s.Dirty() {
			t.Fatalf("%s: snapshot should be empty and clean, len=%d dirty=%v", name, s.Len(), s.Dirty())
		}
		s.Put("k2", domain.CacheEntry{Category: "News"})
		if s.Len() != 1 {
			t.Fatalf("%s: snapshot should stay usable", name)
		}
	}
}

func TestPersistRefusedAfterUnreadableLoad(t *testing.T) {
	t.Parallel()

	s := New(brokenStore{})
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	s.Put("k", domain.CacheEntry{Category: "News"})
	if s.Writable() {
		t.Fatal("snapshot of an unreadable blob must not be writable")
	}
	if err := s.Persist(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	corrupt := New(brokenStore{raw: []byte("{not json")})
	if err := corrupt.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
	if !corrupt.Writable() {
		t.Fatal("a corrupt blob may be replaced")
	}

	q := NewReviewQueue(brokenStore{})
	if err := q.Load(context.Background()); err == nil || q.Writable() {
		t.Fatalf("unreadable queue must not be writable, err=%v", err)
	}
}

func TestClearBelowAndExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := New(nil)
	s.Put("low", domain.CacheEntry{Category: "Work", Confidence: 0.4, Timestamp: now.UnixMilli()})
	s.Put("old", domain.CacheEntry{Category: "News", Confidence: 0.95, Timestamp: now.Add(-25 * time.Hour).UnixMilli()})
	s.Put("good", domain.CacheEntry{Category: "Email", Confidence: 0.95, Timestamp: now.UnixMilli()})
	s.MarkClean()

	if n := s.ClearBelow(0.5); n != 1 {
		t.Fatalf("ClearBelow removed %d, want 1", n)
	}
	if !s.Dirty() {
		t.Fatal("clearing should mark the store dirty")
	}
	if n := s.ClearExpired(now); n != 1 {
		t.Fatalf("ClearExpired removed %d, want 1", n)
	}
	if _, ok := s.Get("good"); !ok || s.Len() != 1 {
		t.Fatalf("only the valid entry should remain, len=%d", s.Len())
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := New(nil)
	s.Put("a", domain.CacheEntry{Category: "Work", Confidence: 0.95, Timestamp: now.UnixMilli(), Source: "ai_pass1"})
	s.Put("b", domain.CacheEntry{Category: "Work", Confidence: 0.3, Timestamp: now.Add(-time.Hour).UnixMilli(), Source: "ai_pass1"})

	got := s.Stats(now)
	want := Stats{
		Entries:  2,
		Valid:    1,
		ByTier:   map[time.Duration]int{24 * time.Hour: 1, 30 * time.Minute: 1},
		BySource: map[string]int{"ai_pass1": 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestReviewQueueIsBounded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := storage.NewMemoryStore()
	q := NewReviewQueue(kv)
	for i := range MaxReviewItems + 10 {
		q.Push(domain.ReviewItem{Key: domain.TabKey(fmt.Sprintf("k%d", i)), Confidence: 0.4})
	}
	if q.Len() != MaxReviewItems {
		t.Fatalf("queue length %d, want %d", q.Len(), MaxReviewItems)
	}
	if first := q.Items()[0].Key; first != "k10" {
		t.Fatalf("oldest items should be evicted first, head is %q", first)
	}

	raw, err := q.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if err := kv.Set(ctx, map[string][]byte{ReviewQueueKey: raw}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	loaded := NewReviewQueue(kv)
	if err := loaded.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(q.Items(), loaded.Items()); diff != "" {
		t.Fatalf("loaded queue mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyReviewQueueEncodesAsArray(t *testing.T) {
	t.Parallel()

	raw, err := NewReviewQueue(nil).Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected [], got %s", raw)
	}
}
