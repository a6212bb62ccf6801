package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"TabSorter/internal/cache"
	"TabSorter/internal/domain"
	"TabSorter/internal/fallback"
	"TabSorter/internal/ports"
	"TabSorter/internal/taxonomy"
	"TabSorter/internal/validator"
)

const (
	// PreFilterConfidence is assigned to tabs resolved by a domain hint before
	// any remote call.
	PreFilterConfidence = 0.90
	// DomainFallbackConfidence and TitleFallbackConfidence tag the two
	// deterministic fallback tiers.
	DomainFallbackConfidence = 0.85
	TitleFallbackConfidence  = 0.70
	// PatternOverrideConfidence is pinned when a deterministic signal beats a
	// remote label in the second pass.
	PatternOverrideConfidence = 0.9
	// LowConfidenceThreshold queues remote assignments for review.
	LowConfidenceThreshold = 0.6
)

// BatchPolicy sizes and paces remote calls for one provider.
type BatchPolicy struct {
	BatchSize       int
	Pass2BatchSize  int
	Pass3BatchSize  int
	Pass3Rounds     int
	InterBatchDelay time.Duration
	CallTimeout     time.Duration
}

// StandardPolicy suits a provider without a tight request budget.
func StandardPolicy() BatchPolicy {
	return BatchPolicy{
		BatchSize:       20,
		Pass2BatchSize:  10,
		Pass3BatchSize:  5,
		Pass3Rounds:     3,
		InterBatchDelay: 300 * time.Millisecond,
		CallTimeout:     30 * time.Second,
	}
}

// FreeTierPolicy suits a constrained free-tier provider.
func FreeTierPolicy() BatchPolicy {
	return BatchPolicy{
		BatchSize:       5,
		Pass2BatchSize:  3,
		Pass3BatchSize:  2,
		Pass3Rounds:     3,
		InterBatchDelay: 4 * time.Second,
		CallTimeout:     30 * time.Second,
	}
}

func (p BatchPolicy) withDefaults() BatchPolicy {
	def := StandardPolicy()
	if p.BatchSize <= 0 {
		p.BatchSize = def.BatchSize
	}
	if p.Pass2BatchSize <= 0 {
		p.Pass2BatchSize = max(1, p.BatchSize/2)
	}
	if p.Pass3BatchSize <= 0 {
		p.Pass3BatchSize = max(1, p.Pass2BatchSize/2)
	}
	if p.Pass3Rounds <= 0 {
		p.Pass3Rounds = def.Pass3Rounds
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = def.CallTimeout
	}
	if p.InterBatchDelay < 0 {
		p.InterBatchDelay = 0
	}
	return p
}

// PipelineDeps wires the driven adapters into the classification pipeline.
// Everything except Knowledge is optional.
type PipelineDeps struct {
	Knowledge   *taxonomy.Knowledge
	Store       ports.KeyValueStore
	Classifier  ports.Classifier
	RateLimiter ports.RateLimiter
	Metrics     ports.PipelineMetrics
	Logger      *slog.Logger
	Policy      BatchPolicy

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Pipeline implements the multi-pass tab classification workflow.
type Pipeline struct {
	knowledge  *taxonomy.Knowledge
	validator  *validator.Validator
	analyzer   *fallback.Analyzer
	cache      *cache.Store
	queue      *cache.ReviewQueue
	store      ports.KeyValueStore
	classifier ports.Classifier
	limiter    ports.RateLimiter
	metrics    ports.PipelineMetrics
	logger     *slog.Logger
	policy     BatchPolicy
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		knowledge:  deps.Knowledge,
		cache:      cache.New(deps.Store),
		queue:      cache.NewReviewQueue(deps.Store),
		store:      deps.Store,
		classifier: deps.Classifier,
		limiter:    deps.RateLimiter,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		policy:     deps.Policy.withDefaults(),
		now:        deps.Now,
		sleep:      deps.Sleep,
	}
	if deps.Knowledge != nil {
		p.validator = validator.New(deps.Knowledge)
		p.analyzer = fallback.New(deps.Knowledge)
	}
	if p.metrics == nil {
		p.metrics = noopMetrics{}
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	return p
}

// Stats summarizes one run.
type Stats struct {
	Total         int
	BySource      map[domain.Source]int
	RemoteCalls   int
	BatchFailures []BatchFailure
	Rejected      int
	Queued        int
}

// Result is the outcome of a run: one assignment per input tab, in input
// order, grouped by category.
type Result struct {
	RunID             string
	Assignments       []domain.Assignment
	Groups            map[string][]int
	RemoteContributed bool
	Stats             Stats
}

// Run classifies every tab. It only fails on a misconfigured pipeline; remote,
// validation and storage failures degrade confidence instead of coverage.
func (p *Pipeline) Run(ctx context.Context, tabs []domain.Tab) (Result, error) {
	if p.knowledge == nil {
		return Result{}, errors.New("pipeline: taxonomy knowledge is not configured")
	}

	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)
	res := Result{RunID: runID, Groups: map[string][]int{}}
	if len(tabs) == 0 {
		return res, nil
	}

	st := newRunState(tabs)
	p.init(ctx, log, st)
	p.preFilter(log, st)

	if p.classifier != nil {
		p.remotePass(ctx, log, st, passPlan{
			source: domain.SourcePass1, status: domain.StatusPass1,
			batchSize: p.policy.BatchSize,
		})
		p.remotePass(ctx, log, st, passPlan{
			source: domain.SourcePass2, status: domain.StatusPass2,
			batchSize: p.policy.Pass2BatchSize, override: true,
		})
		for round := 1; round <= p.policy.Pass3Rounds; round++ {
			if len(st.pending()) == 0 || st.stopped {
				break
			}
			p.remotePass(ctx, log, st, passPlan{
				source: domain.SourcePass3, status: domain.StatusPass3,
				batchSize: p.policy.Pass3BatchSize, round: round,
				delay: p.policy.InterBatchDelay * time.Duration(round+1),
			})
		}
	}

	p.fallback(log, st)
	p.safetyNet(log, st)
	p.persist(ctx, log)

	res.Assignments = st.assignments()
	res.Groups = st.groups()
	res.RemoteContributed = st.remote
	res.Stats = Stats{
		Total:         len(tabs),
		BySource:      st.countBySource(),
		RemoteCalls:   st.calls,
		BatchFailures: st.failures,
		Rejected:      st.rejected,
		Queued:        st.queued,
	}
	for source, n := range res.Stats.BySource {
		p.metrics.Resolved(source, n)
	}

	log.Info("classification run finished",
		"tabs", len(tabs),
		"groups", len(res.Groups),
		"remote_calls", st.calls,
		"batch_failures", len(st.failures),
		"rejected", st.rejected,
		"remote_contributed", st.remote)
	return res, nil
}

// init loads the cache and resolves keys with a fresh, still-valid entry.
func (p *Pipeline) init(ctx context.Context, log *slog.Logger, st *runState) {
	if p.store != nil {
		if err := p.cache.Load(ctx); err != nil {
			log.Warn("cache unavailable, continuing in memory", "error", err)
		}
		if err := p.queue.Load(ctx); err != nil {
			log.Warn("review queue unavailable, continuing in memory", "error", err)
		}
	}

	now := p.now()
	hits := 0
	for _, key := range st.keys {
		entry, ok := p.cache.Get(key)
		if !ok || !cache.IsValid(entry, now) {
			p.metrics.CacheLookup(false)
			continue
		}
		verdict := p.validator.ValidateStrict(entry.Category, validator.ContextFor(st.tab(key)))
		if !verdict.Allowed {
			p.metrics.CacheLookup(false)
			continue
		}
		p.metrics.CacheLookup(true)
		hits++
		st.resolve(key, domain.Assignment{
			Category:    verdict.Category,
			Confidence:  entry.Confidence,
			Source:      domain.SourceCache,
			Corrected:   entry.Corrected,
			NeedsReview: entry.NeedsReview,
		}, domain.StatusCached)
	}
	log.Debug("init done", "tabs", len(st.records), "keys", len(st.keys), "cache_hits", hits)
}

// preFilter resolves known domains without spending a remote call.
func (p *Pipeline) preFilter(log *slog.Logger, st *runState) {
	now := p.now()
	resolved := 0
	for _, key := range st.pending() {
		tab := st.tab(key)
		label, ok := p.analyzer.StrictDomainOnly(tab.Domain)
		if !ok {
			continue
		}
		verdict := p.validator.ValidateStrict(label, validator.ContextFor(tab))
		if !verdict.Allowed {
			continue
		}
		a := domain.Assignment{
			Category:   verdict.Category,
			Confidence: PreFilterConfidence,
			Source:     domain.SourcePreFilter,
		}
		st.resolve(key, a, domain.StatusPrefiltered)
		p.cache.Put(key, domain.EntryFor(a, now))
		resolved++
	}
	log.Debug("pre-filter done", "resolved", resolved, "pending", len(st.pending()))
}

// fallback resolves every remaining key deterministically.
func (p *Pipeline) fallback(log *slog.Logger, st *runState) {
	now := p.now()
	pending := st.pending()
	for _, key := range pending {
		tab := st.tab(key)
		label, source := p.analyzer.Analyze(tab)
		if source == domain.SourceDomainFallback &&
			!p.validator.ValidateStrict(label, validator.ContextFor(tab)).Allowed {
			label, source = p.analyzer.AnalyzeTitle(tab.Title, tab.URL), domain.SourceTitleFallback
		}

		confidence := TitleFallbackConfidence
		if source == domain.SourceDomainFallback {
			confidence = DomainFallbackConfidence
		}
		a := domain.Assignment{Category: label, Confidence: confidence, Source: source}
		st.resolve(key, a, domain.StatusFallback)
		p.cache.Put(key, domain.EntryFor(a, now))
	}
	if len(pending) > 0 {
		log.Debug("fallback done", "resolved", len(pending))
	}
}

// safetyNet guarantees coverage; it should find nothing to do.
func (p *Pipeline) safetyNet(log *slog.Logger, st *runState) {
	for _, key := range st.pending() {
		log.Warn("tab reached safety net", "key", key)
		st.resolve(key, domain.Assignment{
			Category: domain.Uncategorized,
			Source:   domain.SourceSafetyNet,
		}, domain.StatusSafetyNet)
	}
}

// persist writes the cache and the review queue in a single store call. It
// runs even when the caller has given up on the run. A blob that could not be
// read at init is left untouched; a blob that fails to encode is skipped
// without holding back the other.
func (p *Pipeline) persist(ctx context.Context, log *slog.Logger) {
	if p.store == nil {
		return
	}

	values := map[string][]byte{}
	cacheOut := p.cache.Dirty() && p.cache.Writable()
	if cacheOut {
		raw, err := p.cache.Encode()
		if err != nil {
			log.Warn("cache not persisted", "error", err)
			cacheOut = false
		} else {
			values[cache.BlobKey] = raw
		}
	} else if p.cache.Dirty() {
		log.Warn("cache not persisted", "reason", "blob was not readable at init")
	}
	queueOut := p.queue.Dirty() && p.queue.Writable()
	if queueOut {
		raw, err := p.queue.Encode()
		if err != nil {
			log.Warn("review queue not persisted", "error", err)
			queueOut = false
		} else {
			values[cache.ReviewQueueKey] = raw
		}
	} else if p.queue.Dirty() {
		log.Warn("review queue not persisted", "reason", "blob was not readable at init")
	}
	if len(values) == 0 {
		return
	}

	if err := p.store.Set(context.WithoutCancel(ctx), values); err != nil {
		log.Warn("persist run state", "error", fmt.Errorf("write store: %w", err))
		return
	}
	if cacheOut {
		p.cache.MarkClean()
	}
	if queueOut {
		p.queue.MarkClean()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noopMetrics struct{}

func (noopMetrics) RemoteCall(string, domain.Source, time.Duration, string) {}
func (noopMetrics) Resolved(domain.Source, int)                             {}
func (noopMetrics) Rejected(string)                                         {}
func (noopMetrics) CacheLookup(bool)                                        {}
func (noopMetrics) ReviewQueued()                                           {}
