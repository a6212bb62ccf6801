// Package cache keeps the confidence-weighted category cache. The whole map is
// persisted as one blob: it is loaded once per run and written once at the end.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
)

// BlobKey is the persistent-store key holding the serialized cache.
const BlobKey = "tabCategoryCache"

// ErrUnavailable is returned by Persist when the blob could not be read at
// load time; writing the partial snapshot would replace entries it never saw.
var ErrUnavailable = errors.New("cache blob was not readable at load")

// TTL tiers, highest confidence first.
var ttlTiers = []struct {
	min float64
	ttl time.Duration
}{
	{0.9, 24 * time.Hour},
	{0.7, 12 * time.Hour},
	{0.5, 4 * time.Hour},
}

const minTTL = 30 * time.Minute

// TTL returns how long an entry with the given confidence stays valid. It is a
// non-decreasing step function of confidence.
func TTL(confidence float64) time.Duration {
	for _, tier := range ttlTiers {
		if confidence >= tier.min {
			return tier.ttl
		}
	}
	return minTTL
}

// IsValid reports whether the entry is still usable at now.
func IsValid(entry domain.CacheEntry, now time.Time) bool {
	if entry.Category == "" || entry.Timestamp <= 0 {
		return false
	}
	age := now.Sub(time.UnixMilli(entry.Timestamp))
	return age < TTL(entry.Confidence)
}

// Store is an in-memory snapshot of the cache backed by a key/value store.
// It assumes a single writer for the duration of a run.
type Store struct {
	kv          ports.KeyValueStore
	entries     map[domain.TabKey]domain.CacheEntry
	dirty       bool
	unavailable bool
}

// New creates an empty store. kv may be nil for a purely in-memory cache.
func New(kv ports.KeyValueStore) *Store {
	return &Store{
		kv:      kv,
		entries: map[domain.TabKey]domain.CacheEntry{},
	}
}

// Load replaces the snapshot with the persisted blob. On failure the snapshot
// is left empty and usable; the error is returned for logging only. A read
// failure also makes the snapshot memory-only until the next successful Load.
// A blob that reads but does not decode is treated as corrupt and may be
// replaced.
func (s *Store) Load(ctx context.Context) error {
	s.entries = map[domain.TabKey]domain.CacheEntry{}
	s.dirty = false
	s.unavailable = false
	if s.kv == nil {
		return nil
	}

	raw, ok, err := s.kv.Get(ctx, BlobKey)
	if err != nil {
		s.unavailable = true
		return fmt.Errorf("read cache blob: %w", err)
	}
	if !ok || len(raw) == 0 {
		return nil
	}

	var entries map[domain.TabKey]domain.CacheEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("decode cache blob: %w", err)
	}
	if entries != nil {
		s.entries = entries
	}
	return nil
}

// Get returns the entry for key regardless of validity.
func (s *Store) Get(key domain.TabKey) (domain.CacheEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Put replaces the entry for key.
func (s *Store) Put(key domain.TabKey, entry domain.CacheEntry) {
	s.entries[key] = entry
	s.dirty = true
}

// ClearBelow drops entries whose confidence is below threshold.
func (s *Store) ClearBelow(threshold float64) int {
	removed := 0
	for k, e := range s.entries {
		if e.Confidence < threshold {
			delete(s.entries, k)
			removed++
		}
	}
	if removed > 0 {
		s.dirty = true
	}
	return removed
}

// ClearExpired drops entries that are no longer valid at now.
func (s *Store) ClearExpired(now time.Time) int {
	removed := 0
	for k, e := range s.entries {
		if !IsValid(e, now) {
			delete(s.entries, k)
			removed++
		}
	}
	if removed > 0 {
		s.dirty = true
	}
	return removed
}

// Len returns the number of entries in the snapshot.
func (s *Store) Len() int {
	return len(s.entries)
}

// Dirty reports whether the snapshot changed since the last load or persist.
func (s *Store) Dirty() bool {
	return s.dirty
}

// Writable reports whether the snapshot may be written back as the blob.
func (s *Store) Writable() bool {
	return !s.unavailable
}

// Stats summarizes the snapshot at now.
type Stats struct {
	Entries  int
	Valid    int
	ByTier   map[time.Duration]int
	BySource map[string]int
}

// Stats computes validity and source counts.
func (s *Store) Stats(now time.Time) Stats {
	st := Stats{
		Entries:  len(s.entries),
		ByTier:   map[time.Duration]int{},
		BySource: map[string]int{},
	}
	for _, e := range s.entries {
		if IsValid(e, now) {
			st.Valid++
		}
		st.ByTier[TTL(e.Confidence)]++
		st.BySource[e.Source]++
	}
	return st
}

// Encode serializes the snapshot as the persisted blob.
func (s *Store) Encode() ([]byte, error) {
	raw, err := json.Marshal(s.entries)
	if err != nil {
		return nil, fmt.Errorf("encode cache blob: %w", err)
	}
	return raw, nil
}

// MarkClean records that the snapshot was persisted elsewhere.
func (s *Store) MarkClean() {
	s.dirty = false
}

// Persist writes the whole snapshot back in one call.
func (s *Store) Persist(ctx context.Context) error {
	if s.kv == nil {
		s.dirty = false
		return nil
	}
	if s.unavailable {
		return ErrUnavailable
	}
	raw, err := s.Encode()
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, map[string][]byte{BlobKey: raw}); err != nil {
		return fmt.Errorf("write cache blob: %w", err)
	}
	s.dirty = false
	return nil
}
