package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
)

const (
	// ReviewQueueKey is the persistent-store key of the low-confidence queue.
	ReviewQueueKey = "lowConfidenceQueue"

	// MaxReviewItems bounds the queue; the oldest items are dropped first.
	MaxReviewItems = 500
)

// ReviewQueue is a bounded FIFO of low-confidence assignments awaiting
// out-of-band reprocessing.
type ReviewQueue struct {
	kv          ports.KeyValueStore
	items       []domain.ReviewItem
	dirty       bool
	unavailable bool
}

// NewReviewQueue creates an empty queue backed by kv (may be nil).
func NewReviewQueue(kv ports.KeyValueStore) *ReviewQueue {
	return &ReviewQueue{kv: kv}
}

// Load replaces the in-memory items with the persisted ones. Like the cache,
// a read failure keeps the queue memory-only until the next successful Load.
func (q *ReviewQueue) Load(ctx context.Context) error {
	q.items = nil
	q.dirty = false
	q.unavailable = false
	if q.kv == nil {
		return nil
	}
	raw, ok, err := q.kv.Get(ctx, ReviewQueueKey)
	if err != nil {
		q.unavailable = true
		return fmt.Errorf("read review queue: %w", err)
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	var items []domain.ReviewItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("decode review queue: %w", err)
	}
	q.items = trim(items)
	return nil
}

// Push appends an item, evicting the oldest when the queue is full.
func (q *ReviewQueue) Push(item domain.ReviewItem) {
	q.items = trim(append(q.items, item))
	q.dirty = true
}

// Items returns a copy of the queued items, oldest first.
func (q *ReviewQueue) Items() []domain.ReviewItem {
	return append([]domain.ReviewItem(nil), q.items...)
}

// Len returns the number of queued items.
func (q *ReviewQueue) Len() int {
	return len(q.items)
}

// Dirty reports whether the queue changed since the last load or persist.
func (q *ReviewQueue) Dirty() bool {
	return q.dirty
}

// Writable reports whether the items may be written back as the queue blob.
func (q *ReviewQueue) Writable() bool {
	return !q.unavailable
}

// Encode serializes the queue.
func (q *ReviewQueue) Encode() ([]byte, error) {
	items := q.items
	if items == nil {
		items = []domain.ReviewItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode review queue: %w", err)
	}
	return raw, nil
}

// MarkClean records that the current items were persisted elsewhere.
func (q *ReviewQueue) MarkClean() {
	q.dirty = false
}

func trim(items []domain.ReviewItem) []domain.ReviewItem {
	if over := len(items) - MaxReviewItems; over > 0 {
		items = append([]domain.ReviewItem(nil), items[over:]...)
	}
	return items
}
