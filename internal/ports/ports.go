package ports

import (
	"context"
	"time"

	"TabSorter/internal/domain"
)

// TabInput is the per-tab payload sent to a remote classifier.
type TabInput struct {
	Key    domain.TabKey `json:"key"`
	Title  string        `json:"title"`
	URL    string        `json:"url"`
	Domain string        `json:"domain"`
}

// CustomCategory is a user-defined label with an optional description.
type CustomCategory struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ClassifyRequest is one batch for a remote classifier.
type ClassifyRequest struct {
	Tabs              []TabInput
	AllowedCategories []string
	CustomCategories  []CustomCategory
	DomainHints       map[string]string
}

// RawAssignment is an unvalidated label proposed by a remote classifier.
type RawAssignment struct {
	Key        domain.TabKey `json:"key"`
	Category   string        `json:"category"`
	Confidence float64       `json:"confidence"`
}

// ClassifyResponse carries zero or more proposals for a batch.
type ClassifyResponse struct {
	Assignments []RawAssignment `json:"assignments"`
}

// Classifier is one remote classification provider.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error)
}

// Decision is the rate limiter's verdict for the next request.
type Decision struct {
	Allowed bool
	Reason  string
}

// Usage summarizes a rate limiter's rolling windows. RemainingToday is -1
// when there is no daily cap.
type Usage struct {
	LastMinute     int
	LastHour       int
	LastDay        int
	RemainingToday int
}

// RateLimiter guards a constrained provider's request budget.
type RateLimiter interface {
	CanMakeRequest() Decision
	RecordRequest()
	UsageStats() Usage
}

// KeyValueStore persists opaque blobs. Set writes every key of the map.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, values map[string][]byte) error
}

// TabSource enumerates the tabs of a working set.
type TabSource interface {
	Tabs(ctx context.Context) ([]domain.Tab, error)
}

// GroupSink receives the consolidated category groups of a run.
type GroupSink interface {
	Publish(ctx context.Context, grouping domain.Grouping) error
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// PipelineMetrics observes a pipeline run. Implementations must tolerate
// being called from one goroutine at a time per run.
type PipelineMetrics interface {
	RemoteCall(provider string, pass domain.Source, elapsed time.Duration, failure string)
	Resolved(source domain.Source, n int)
	Rejected(reason string)
	CacheLookup(hit bool)
	ReviewQueued()
}
