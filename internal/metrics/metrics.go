// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
)

var (
	// RemoteCallsTotal counts classifier calls per provider, pass and outcome.
	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabsorter_remote_calls_total",
			Help: "Total number of remote classifier calls",
		},
		[]string{"provider", "pass", "outcome"},
	)

	// RemoteLatency tracks classifier call latency.
	RemoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tabsorter_remote_latency_seconds",
			Help:    "Remote classifier call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// ResolvedTotal counts tab assignments by source.
	ResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabsorter_resolved_tabs_total",
			Help: "Total number of tabs resolved, by source",
		},
		[]string{"source"},
	)

	// RejectedTotal counts remote labels refused by the validator.
	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabsorter_rejected_labels_total",
			Help: "Total number of remote labels rejected by validation",
		},
		[]string{"reason"},
	)

	// CacheLookupsTotal counts cache lookups by result.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabsorter_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"result"},
	)

	// ReviewQueuedTotal counts low-confidence assignments queued for review.
	ReviewQueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tabsorter_review_queued_total",
			Help: "Total number of assignments queued for review",
		},
	)

	// LimiterRemaining tracks the free-tier requests left today.
	LimiterRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tabsorter_limiter_remaining_today",
			Help: "Requests left in the rate limiter's daily window",
		},
	)
)

// Recorder implements ports.PipelineMetrics on the package collectors.
type Recorder struct{}

var _ ports.PipelineMetrics = Recorder{}

// RemoteCall records one classifier call; failure is empty on success.
func (Recorder) RemoteCall(provider string, pass domain.Source, elapsed time.Duration, failure string) {
	outcome := failure
	if outcome == "" {
		outcome = "ok"
	}
	RemoteCallsTotal.WithLabelValues(provider, string(pass), outcome).Inc()
	if elapsed > 0 {
		RemoteLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// Resolved records n tabs resolved by source.
func (Recorder) Resolved(source domain.Source, n int) {
	ResolvedTotal.WithLabelValues(string(source)).Add(float64(n))
}

// Rejected records one validator rejection.
func (Recorder) Rejected(reason string) {
	RejectedTotal.WithLabelValues(reason).Inc()
}

// CacheLookup records a cache hit or miss.
func (Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// ReviewQueued records one queued review item.
func (Recorder) ReviewQueued() {
	ReviewQueuedTotal.Inc()
}

// ObserveUsage publishes the limiter's remaining daily budget.
func ObserveUsage(u ports.Usage) {
	if u.RemainingToday >= 0 {
		LimiterRemaining.Set(float64(u.RemainingToday))
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
