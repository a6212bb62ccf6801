package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
	"TabSorter/internal/validator"
)

// FailureKind classifies an expected remote failure.
type FailureKind string

const (
	FailureRateLimited     FailureKind = "rate_limited"
	FailureAuth            FailureKind = "auth"
	FailureMalformed       FailureKind = "malformed"
	FailureTimeout         FailureKind = "timeout"
	FailureTransport       FailureKind = "transport"
	FailureLimiterRejected FailureKind = "limiter_rejected"
)

// BatchFailure records a batch whose keys stayed unresolved.
type BatchFailure struct {
	Pass  domain.Source
	Round int
	Kind  FailureKind
	Keys  int
	Err   error
}

func (f BatchFailure) Error() string {
	return fmt.Sprintf("%s batch of %d failed (%s): %v", f.Pass, f.Keys, f.Kind, f.Err)
}

func (f BatchFailure) Unwrap() error { return f.Err }

func failureKind(err error) FailureKind {
	switch {
	case errors.Is(err, ports.ErrRateLimited):
		return FailureRateLimited
	case errors.Is(err, ports.ErrAuth):
		return FailureAuth
	case errors.Is(err, ports.ErrMalformed):
		return FailureMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	default:
		return FailureTransport
	}
}

type passPlan struct {
	source    domain.Source
	status    domain.Status
	batchSize int
	round     int
	delay     time.Duration
	override  bool
}

// remotePass sends the pending keys to the classifier in sequential batches.
func (p *Pipeline) remotePass(ctx context.Context, log *slog.Logger, st *runState, plan passPlan) {
	pending := st.pending()
	if len(pending) == 0 || st.stopped {
		return
	}
	if plan.delay <= 0 {
		plan.delay = p.policy.InterBatchDelay
	}
	log = log.With("pass", plan.source)
	if plan.round > 0 {
		log = log.With("round", plan.round)
	}

	resolved := 0
	for batch := range slices.Chunk(pending, plan.batchSize) {
		if ctx.Err() != nil {
			st.stopped = true
			log.Info("run cancelled, skipping remaining remote work")
			return
		}
		if st.attempts > 0 {
			if err := p.sleep(ctx, plan.delay); err != nil {
				st.stopped = true
				log.Info("run cancelled during inter-batch delay")
				return
			}
		}

		resp, failure := p.callBatch(ctx, st, plan, batch)
		if failure != nil {
			st.failures = append(st.failures, *failure)
			log.Warn("batch failed", "kind", failure.Kind, "keys", failure.Keys, "error", failure.Err)
			continue
		}
		resolved += p.applyBatch(log, st, plan, batch, resp)
	}
	log.Debug("remote pass done", "resolved", resolved, "pending", len(st.pending()))
}

// callBatch performs one remote call. The call itself is not cancelled with
// the run; only the per-call timeout bounds it.
func (p *Pipeline) callBatch(ctx context.Context, st *runState, plan passPlan, batch []domain.TabKey) (ports.ClassifyResponse, *BatchFailure) {
	fail := func(kind FailureKind, err error) *BatchFailure {
		return &BatchFailure{Pass: plan.source, Round: plan.round, Kind: kind, Keys: len(batch), Err: err}
	}

	st.attempts++
	if p.limiter != nil {
		decision := p.limiter.CanMakeRequest()
		if !decision.Allowed {
			p.metrics.RemoteCall(p.classifier.Name(), plan.source, 0, string(FailureLimiterRejected))
			return ports.ClassifyResponse{}, fail(FailureLimiterRejected, errors.New(decision.Reason))
		}
		p.limiter.RecordRequest()
	}

	req := p.buildRequest(st, batch)
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.policy.CallTimeout)
	defer cancel()

	st.calls++
	started := time.Now()
	resp, err := p.classifier.Classify(callCtx, req)
	elapsed := time.Since(started)
	if err != nil {
		kind := failureKind(err)
		p.metrics.RemoteCall(p.classifier.Name(), plan.source, elapsed, string(kind))
		return ports.ClassifyResponse{}, fail(kind, err)
	}
	p.metrics.RemoteCall(p.classifier.Name(), plan.source, elapsed, "")
	return resp, nil
}

func (p *Pipeline) buildRequest(st *runState, batch []domain.TabKey) ports.ClassifyRequest {
	tabs := make([]ports.TabInput, 0, len(batch))
	hosts := make([]string, 0, len(batch))
	for _, key := range batch {
		t := st.tab(key)
		tabs = append(tabs, ports.TabInput{Key: key, Title: t.Title, URL: t.URL, Domain: t.Domain})
		if t.Domain != "" {
			hosts = append(hosts, t.Domain)
		}
	}

	custom := p.knowledge.CustomCategories()
	customIn := make([]ports.CustomCategory, 0, len(custom))
	for _, c := range custom {
		customIn = append(customIn, ports.CustomCategory{Name: c.Name, Description: c.Description})
	}

	return ports.ClassifyRequest{
		Tabs:              tabs,
		AllowedCategories: p.knowledge.Allowed(),
		CustomCategories:  customIn,
		DomainHints:       p.knowledge.HintsFor(hosts),
	}
}

// applyBatch validates, corrects and records the proposals of one batch.
func (p *Pipeline) applyBatch(log *slog.Logger, st *runState, plan passPlan, batch []domain.TabKey, resp ports.ClassifyResponse) int {
	inBatch := make(map[domain.TabKey]struct{}, len(batch))
	for _, key := range batch {
		inBatch[key] = struct{}{}
	}

	now := p.now()
	resolved := 0
	for _, raw := range resp.Assignments {
		if _, ok := inBatch[raw.Key]; !ok || !st.isPending(raw.Key) {
			log.Debug("ignoring assignment", "key", raw.Key)
			continue
		}
		tab := st.tab(raw.Key)

		verdict := p.validator.ValidateStrict(raw.Category, validator.ContextFor(tab))
		if !verdict.Allowed {
			st.rejected++
			p.metrics.Rejected(verdict.Reason)
			log.Debug("assignment rejected", "key", raw.Key, "category", raw.Category, "reason", verdict.Reason)
			continue
		}

		a := p.correct(tab, verdict, clamp01(raw.Confidence), plan)
		a.Source = plan.source
		st.resolve(raw.Key, a, plan.status)
		p.cache.Put(raw.Key, domain.EntryFor(a, now))
		resolved++

		if a.Confidence < LowConfidenceThreshold || a.NeedsReview {
			p.queue.Push(domain.ReviewItem{
				Key:        raw.Key,
				Title:      tab.Title,
				URL:        tab.URL,
				Category:   a.Category,
				Confidence: a.Confidence,
				Source:     a.Source,
				Timestamp:  now.UnixMilli(),
			})
			st.queued++
			p.metrics.ReviewQueued()
		}
	}
	return resolved
}

// correct applies critical-domain correction first. In the override pass a
// deterministic domain or title signal then beats the remote label.
func (p *Pipeline) correct(tab domain.Tab, verdict validator.StrictResult, confidence float64, plan passPlan) domain.Assignment {
	confidence = max(confidence, verdict.MinConfidence)
	fix := p.validator.ValidateCategory(tab.URL, tab.Title, verdict.Category, confidence)
	if fix.Corrected {
		return domain.Assignment{Category: fix.Category, Confidence: fix.Confidence, Corrected: true}
	}

	if plan.override {
		det, ok := p.deterministic(tab)
		if ok && det != verdict.Category && p.validator.ValidateStrict(det, validator.ContextFor(tab)).Allowed {
			return domain.Assignment{Category: det, Confidence: PatternOverrideConfidence, Corrected: true}
		}
	}

	return domain.Assignment{
		Category:    fix.Category,
		Confidence:  fix.Confidence,
		NeedsReview: fix.NeedsReview,
	}
}

func (p *Pipeline) deterministic(tab domain.Tab) (string, bool) {
	if label, ok := p.analyzer.StrictDomainOnly(tab.Domain); ok {
		return label, true
	}
	return p.analyzer.MatchTitlePattern(tab.Title)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
