package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"TabSorter/internal/cache"
	"TabSorter/internal/config"
	"TabSorter/internal/consolidate"
	"TabSorter/internal/domain"
	"TabSorter/internal/infrastructure/llm"
	"TabSorter/internal/infrastructure/ml"
	"TabSorter/internal/infrastructure/parser"
	"TabSorter/internal/infrastructure/ratelimit"
	"TabSorter/internal/infrastructure/scheduler"
	"TabSorter/internal/infrastructure/sink"
	"TabSorter/internal/infrastructure/storage"
	"TabSorter/internal/logging"
	"TabSorter/internal/metrics"
	"TabSorter/internal/ports"
	"TabSorter/internal/tabsource"
	"TabSorter/internal/taxonomy"
	"TabSorter/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	knowledge *taxonomy.Knowledge
	store     ports.KeyValueStore
	closer    io.Closer
	limiter   *ratelimit.Tracker
	registry  *tabsource.Registry
	sink      ports.GroupSink
	organizer *usecase.Organizer
}

// New builds a runnable application instance. out receives text or JSON
// groupings when no webhook sink is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, out io.Writer) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	knowledge, err := cfg.Taxonomy.Knowledge()
	if err != nil {
		return nil, fmt.Errorf("build taxonomy: %w", err)
	}

	store, closer, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		baseLogger.Warn("persistent store unavailable, using memory", "driver", cfg.Storage.Driver, "error", err)
		store, closer = storage.NewMemoryStore(), nil
	}

	a := &Application{
		cfg:       cfg,
		logger:    baseLogger,
		knowledge: knowledge,
		store:     store,
		closer:    closer,
		registry:  parser.DefaultRegistry(),
	}

	classifier, err := a.classifier(ctx)
	if err != nil {
		baseLogger.Warn("remote classifier disabled", "provider", cfg.Provider, "error", err)
		classifier = nil
	}

	var limiter ports.RateLimiter
	if cfg.Provider == config.ProviderGemini && classifier != nil {
		a.limiter = ratelimit.NewTracker(ratelimit.Limits{
			PerMinute: cfg.RateLimit.PerMinute,
			PerHour:   cfg.RateLimit.PerHour,
			PerDay:    cfg.RateLimit.PerDay,
			Cooldown:  cfg.RateLimit.Cooldown,
		}, nil)
		limiter = a.limiter
	}

	profile := cfg.Batching.Profile(cfg.Provider)
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Knowledge:   knowledge,
		Store:       store,
		Classifier:  classifier,
		RateLimiter: limiter,
		Metrics:     metrics.Recorder{},
		Logger:      baseLogger.With("component", "pipeline"),
		Policy: usecase.BatchPolicy{
			BatchSize:       profile.BatchSize,
			Pass2BatchSize:  profile.Pass2BatchSize,
			Pass3BatchSize:  profile.Pass3BatchSize,
			Pass3Rounds:     profile.Pass3Rounds,
			InterBatchDelay: profile.InterBatchDelay,
			CallTimeout:     profile.CallTimeout,
		},
	})

	if cfg.Sink.WebhookURL != "" {
		a.sink = sink.NewWebhookSink(cfg.Sink.WebhookURL, cfg.Sink.Timeout)
	} else if out != nil {
		a.sink = sink.NewWriterSink(out, cfg.Sink.Format)
	}

	a.organizer = usecase.NewOrganizer(usecase.OrganizerDeps{
		Pipeline:     pipeline,
		Consolidator: consolidate.New(knowledge),
		Sink:         a.sink,
		Logger:       baseLogger.With("component", "organizer"),
	})
	return a, nil
}

func (a *Application) classifier(ctx context.Context) (ports.Classifier, error) {
	switch a.cfg.Provider {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		if a.cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai api key is empty")
		}
		return llm.NewOpenAIClient(a.cfg.OpenAI), nil
	case config.ProviderAnthropic:
		if a.cfg.Anthropic.APIKey == "" {
			return nil, errors.New("anthropic api key is empty")
		}
		return llm.NewAnthropicClient(a.cfg.Anthropic), nil
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, a.cfg.Gemini)
	case config.ProviderService:
		if a.cfg.Service.URL == "" {
			return nil, errors.New("classification service url is empty")
		}
		return ml.NewClient(a.cfg.Service.URL, a.cfg.Service.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", a.cfg.Provider)
	}
}

// Close releases the persistent store.
func (a *Application) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Source builds a tab source for a file path or URL. format may be empty.
func (a *Application) Source(location, format, windowID string, options map[string]string) ports.TabSource {
	return parser.NewFileSource(a.registry, format, tabsource.Request{
		Location: location,
		WindowID: windowID,
		Options:  options,
	}, a.logger.With("component", "source"))
}

// Organize classifies one window and publishes its groups.
func (a *Application) Organize(ctx context.Context, windowID string, source ports.TabSource) (usecase.Outcome, error) {
	if titled, ok := a.sink.(*sink.WriterSink); ok {
		tabs, err := source.Tabs(ctx)
		if err != nil {
			return usecase.Outcome{}, fmt.Errorf("load tabs for window %s: %w", windowID, err)
		}
		titled.WithTitles(tabs)
		source = parser.StaticSource(tabs)
	}

	out, err := a.organizer.Organize(ctx, windowID, source)
	if a.limiter != nil {
		metrics.ObserveUsage(a.limiter.UsageStats())
	}
	return out, err
}

// Watch re-runs Organize whenever the schedule fires until ctx is done. A
// local file is watched for changes when enabled; otherwise it is polled.
func (a *Application) Watch(ctx context.Context, windowID, location string, source ports.TabSource) error {
	if a.cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, a.cfg.Metrics.Addr); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	var driver ports.Scheduler
	if a.cfg.Schedule.WatchFile && location != "" && !strings.Contains(location, "://") {
		driver = scheduler.NewFileWatchScheduler(location, a.cfg.Schedule.Debounce, a.logger.With("component", "filewatch"))
	} else {
		driver = scheduler.NewIntervalScheduler(a.cfg.Schedule.Interval)
	}

	sched := usecase.NewScheduler(driver, a.organizer, windowID, source, a.logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching tabs", "location", location, "window", windowID)

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// CacheStats loads the cache and summarizes it.
func (a *Application) CacheStats(ctx context.Context) (cache.Stats, error) {
	c := cache.New(a.store)
	if err := c.Load(ctx); err != nil {
		return cache.Stats{}, err
	}
	return c.Stats(time.Now()), nil
}

// ClearCache drops entries below threshold (when > 0) and expired entries
// (when expired is set), then persists the cache. It returns how many
// entries were removed.
func (a *Application) ClearCache(ctx context.Context, below float64, expired bool) (int, error) {
	c := cache.New(a.store)
	if err := c.Load(ctx); err != nil {
		return 0, err
	}
	removed := 0
	if below > 0 {
		removed += c.ClearBelow(below)
	}
	if expired {
		removed += c.ClearExpired(time.Now())
	}
	if !c.Dirty() {
		return 0, nil
	}
	if err := c.Persist(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

// ReviewItems returns the queued low-confidence assignments, oldest first.
func (a *Application) ReviewItems(ctx context.Context) ([]domain.ReviewItem, error) {
	q := cache.NewReviewQueue(a.store)
	if err := q.Load(ctx); err != nil {
		return nil, err
	}
	return q.Items(), nil
}

// Knowledge returns the configured taxonomy.
func (a *Application) Knowledge() *taxonomy.Knowledge {
	return a.knowledge
}
