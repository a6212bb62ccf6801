package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TabSorter/internal/taxonomy"
)

const (
	configPathEnv    = "TABSORTER_CONFIG"
	providerEnv      = "TABSORTER_PROVIDER"
	storageDSNEnv    = "TABSORTER_STORAGE_DSN"
	logLevelEnv      = "TABSORTER_LOG_LEVEL"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	anthropicKeyEnv  = "ANTHROPIC_API_KEY"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	redisURLEnv      = "REDIS_URL"
	defaultStateFile = "tabsorter-state.json"
)

// Provider names accepted in configuration.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderService   = "service"
)

// Storage drivers accepted in configuration.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Provider  string          `yaml:"provider"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Service   ServiceConfig   `yaml:"service"`
	Batching  BatchingConfig  `yaml:"batching"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Storage   StorageConfig   `yaml:"storage"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Sink      SinkConfig      `yaml:"sink"`
}

// LoggingConfig selects the log level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible chat API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// AnthropicConfig configures the Anthropic messages adapter.
type AnthropicConfig struct {
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
}

// GeminiConfig configures the Gemini adapter, normally on the free tier.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// ServiceConfig describes a self-hosted classification service.
type ServiceConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
}

// BatchProfile sizes and paces remote calls.
type BatchProfile struct {
	BatchSize       int           `yaml:"batchSize"`
	Pass2BatchSize  int           `yaml:"pass2BatchSize"`
	Pass3BatchSize  int           `yaml:"pass3BatchSize"`
	Pass3Rounds     int           `yaml:"pass3Rounds"`
	InterBatchDelay time.Duration `yaml:"interBatchDelay"`
	CallTimeout     time.Duration `yaml:"callTimeout"`
}

// BatchingConfig holds the profile for standard providers and the one for
// constrained free-tier providers.
type BatchingConfig struct {
	Standard BatchProfile `yaml:"standard"`
	FreeTier BatchProfile `yaml:"freeTier"`
}

// Profile returns the batching profile for provider.
func (b BatchingConfig) Profile(provider string) BatchProfile {
	if provider == ProviderGemini {
		return b.FreeTier
	}
	return b.Standard
}

// RateLimitConfig bounds requests to the free-tier provider.
type RateLimitConfig struct {
	PerMinute int           `yaml:"perMinute"`
	PerHour   int           `yaml:"perHour"`
	PerDay    int           `yaml:"perDay"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

// StorageConfig selects where the cache blob and review queue live.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redisUrl"`
	Prefix   string `yaml:"prefix"`
}

// TaxonomyConfig extends or replaces the built-in category tables.
type TaxonomyConfig struct {
	Canonical   []string          `yaml:"canonical"`
	Custom      []taxonomy.Custom `yaml:"custom"`
	DomainHints map[string]string `yaml:"domainHints"`
	Synonyms    map[string]string `yaml:"synonyms"`
}

// Knowledge builds the taxonomy from the built-in tables and the overrides.
func (t TaxonomyConfig) Knowledge() (*taxonomy.Knowledge, error) {
	cfg := taxonomy.DefaultConfig(t.Custom)
	if len(t.Canonical) > 0 {
		cfg.Canonical = t.Canonical
	}
	for host, category := range t.DomainHints {
		cfg.DomainHints[strings.ToLower(host)] = category
	}
	for variant, category := range t.Synonyms {
		cfg.Synonyms[strings.ToLower(variant)] = category
	}
	return taxonomy.New(cfg)
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ScheduleConfig defines when watch mode re-runs the pipeline.
type ScheduleConfig struct {
	Interval  time.Duration `yaml:"interval"`
	WatchFile bool          `yaml:"watchFile"`
	Debounce  time.Duration `yaml:"debounce"`
}

// SinkConfig selects where consolidated groups are published.
type SinkConfig struct {
	Format     string        `yaml:"format"`
	WebhookURL string        `yaml:"webhookUrl"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Load reads the YAML file named by TABSORTER_CONFIG (if any) and applies
// environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML configuration from path (if set) and applies
// environment overrides. ${VAR} references in the file are expanded.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(providerEnv); v != "" {
		c.Provider = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(storageDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Storage.RedisURL = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Anthropic.APIKey = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Provider != "" {
		base.Provider = override.Provider
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}

	if override.Anthropic.Model != "" {
		base.Anthropic.Model = override.Anthropic.Model
	}
	if override.Anthropic.APIKey != "" {
		base.Anthropic.APIKey = override.Anthropic.APIKey
	}
	if override.Anthropic.MaxTokens > 0 {
		base.Anthropic.MaxTokens = override.Anthropic.MaxTokens
	}
	if override.Anthropic.Temperature > 0 {
		base.Anthropic.Temperature = override.Anthropic.Temperature
	}

	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}

	if override.Service.URL != "" {
		base.Service = override.Service
	}

	base.Batching.Standard = mergeProfile(base.Batching.Standard, override.Batching.Standard)
	base.Batching.FreeTier = mergeProfile(base.Batching.FreeTier, override.Batching.FreeTier)

	if override.RateLimit.PerMinute > 0 {
		base.RateLimit.PerMinute = override.RateLimit.PerMinute
	}
	if override.RateLimit.PerHour > 0 {
		base.RateLimit.PerHour = override.RateLimit.PerHour
	}
	if override.RateLimit.PerDay > 0 {
		base.RateLimit.PerDay = override.RateLimit.PerDay
	}
	if override.RateLimit.Cooldown > 0 {
		base.RateLimit.Cooldown = override.RateLimit.Cooldown
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}
	if override.Storage.RedisURL != "" {
		base.Storage.RedisURL = override.Storage.RedisURL
	}
	if override.Storage.Prefix != "" {
		base.Storage.Prefix = override.Storage.Prefix
	}

	if len(override.Taxonomy.Canonical) > 0 {
		base.Taxonomy.Canonical = override.Taxonomy.Canonical
	}
	if len(override.Taxonomy.Custom) > 0 {
		base.Taxonomy.Custom = override.Taxonomy.Custom
	}
	if len(override.Taxonomy.DomainHints) > 0 {
		base.Taxonomy.DomainHints = override.Taxonomy.DomainHints
	}
	if len(override.Taxonomy.Synonyms) > 0 {
		base.Taxonomy.Synonyms = override.Taxonomy.Synonyms
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if override.Schedule.Interval > 0 {
		base.Schedule.Interval = override.Schedule.Interval
	}
	if override.Schedule.WatchFile {
		base.Schedule.WatchFile = true
	}
	if override.Schedule.Debounce > 0 {
		base.Schedule.Debounce = override.Schedule.Debounce
	}

	if override.Sink.Format != "" {
		base.Sink.Format = override.Sink.Format
	}
	if override.Sink.WebhookURL != "" {
		base.Sink.WebhookURL = override.Sink.WebhookURL
	}
	if override.Sink.Timeout > 0 {
		base.Sink.Timeout = override.Sink.Timeout
	}

	return base
}

func mergeProfile(base, override BatchProfile) BatchProfile {
	if override.BatchSize > 0 {
		base.BatchSize = override.BatchSize
	}
	if override.Pass2BatchSize > 0 {
		base.Pass2BatchSize = override.Pass2BatchSize
	}
	if override.Pass3BatchSize > 0 {
		base.Pass3BatchSize = override.Pass3BatchSize
	}
	if override.Pass3Rounds > 0 {
		base.Pass3Rounds = override.Pass3Rounds
	}
	if override.InterBatchDelay > 0 {
		base.InterBatchDelay = override.InterBatchDelay
	}
	if override.CallTimeout > 0 {
		base.CallTimeout = override.CallTimeout
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Provider: ProviderNone,
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model:       "claude-3-5-haiku-latest",
			MaxTokens:   2048,
			Temperature: 0.1,
		},
		Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
		Batching: BatchingConfig{
			Standard: BatchProfile{
				BatchSize:       20,
				Pass2BatchSize:  10,
				Pass3BatchSize:  5,
				Pass3Rounds:     3,
				InterBatchDelay: 300 * time.Millisecond,
				CallTimeout:     30 * time.Second,
			},
			FreeTier: BatchProfile{
				BatchSize:       5,
				Pass2BatchSize:  3,
				Pass3BatchSize:  2,
				Pass3Rounds:     3,
				InterBatchDelay: 4 * time.Second,
				CallTimeout:     30 * time.Second,
			},
		},
		RateLimit: RateLimitConfig{
			PerMinute: 15,
			PerHour:   500,
			PerDay:    1500,
			Cooldown:  4 * time.Second,
		},
		Storage: StorageConfig{
			Driver: StorageFile,
			Path:   defaultStateFile,
			Prefix: "tabsorter:",
		},
		Schedule: ScheduleConfig{Interval: 5 * time.Minute, Debounce: 500 * time.Millisecond},
		Sink:     SinkConfig{Format: "text", Timeout: 10 * time.Second},
	}
}
