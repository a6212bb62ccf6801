package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, providerEnv, storageDSNEnv, logLevelEnv,
		openAIAPIKeyEnv, anthropicKeyEnv, geminiAPIKeyEnv, redisURLEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabsorter.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFile("")
	if cfg.Provider != ProviderNone || cfg.Storage.Driver != StorageFile || cfg.Storage.Path != defaultStateFile {
		t.Fatalf("unexpected defaults: provider=%q storage=%+v", cfg.Provider, cfg.Storage)
	}
	if diff := cmp.Diff(defaultConfig().Batching, cfg.Batching); diff != "" {
		t.Fatalf("batching defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileMergesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABSORTER_TEST_HOOK", "https://hooks.example.com/tabs")

	path := writeConfig(t, `
provider: " Gemini "
logging:
  format: json
batching:
  freeTier:
    batchSize: 4
    interBatchDelay: 6s
rateLimit:
  perDay: 100
storage:
  driver: SQLite
  dsn: /tmp/tabs.db
taxonomy:
  custom:
    - name: Side Projects
      description: hobby code
  domainHints:
    intranet.corp: Work
sink:
  webhookUrl: ${TABSORTER_TEST_HOOK}
`)

	cfg := LoadFile(path)
	if cfg.Provider != ProviderGemini {
		t.Fatalf("provider should be normalized, got %q", cfg.Provider)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Fatalf("logging not merged: %+v", cfg.Logging)
	}
	wantFree := BatchProfile{
		BatchSize:       4,
		Pass2BatchSize:  3,
		Pass3BatchSize:  2,
		Pass3Rounds:     3,
		InterBatchDelay: 6 * time.Second,
		CallTimeout:     30 * time.Second,
	}
	if diff := cmp.Diff(wantFree, cfg.Batching.Profile(ProviderGemini)); diff != "" {
		t.Fatalf("free tier mismatch (-want +got):\n%s", diff)
	}
	if cfg.Batching.Profile(ProviderOpenAI).BatchSize != 20 {
		t.Fatalf("standard profile should keep defaults, got %+v", cfg.Batching.Standard)
	}
	if cfg.RateLimit.PerDay != 100 || cfg.RateLimit.PerMinute != 15 {
		t.Fatalf("rate limit not merged: %+v", cfg.RateLimit)
	}
	if cfg.Storage.Driver != StorageSQLite || cfg.Storage.DSN != "/tmp/tabs.db" || cfg.Storage.Prefix != "tabsorter:" {
		t.Fatalf("storage not merged: %+v", cfg.Storage)
	}
	if cfg.Sink.WebhookURL != "https://hooks.example.com/tabs" {
		t.Fatalf("env reference not expanded: %q", cfg.Sink.WebhookURL)
	}

	k, err := cfg.Taxonomy.Knowledge()
	if err != nil {
		t.Fatalf("Knowledge returned error: %v", err)
	}
	if !k.IsMember("Side Projects") {
		t.Fatal("custom category missing from taxonomy")
	}
	if got, ok := k.DomainHint("intranet.corp"); !ok || got != "Work" {
		t.Fatalf("domain hint override missing, got %q %v", got, ok)
	}
}

func TestLoadFileEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(providerEnv, "anthropic")
	t.Setenv(anthropicKeyEnv, "sk-ant")
	t.Setenv(logLevelEnv, "debug")
	t.Setenv(redisURLEnv, "redis://localhost:6379/0")

	path := writeConfig(t, "provider: openai\nanthropic:\n  apiKey: from-file\n")
	cfg := LoadFile(path)
	if cfg.Provider != ProviderAnthropic || cfg.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("env should win over the file: %q %q", cfg.Provider, cfg.Anthropic.APIKey)
	}
	if cfg.Logging.Level != "debug" || cfg.Storage.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Logging, cfg.Storage)
	}
}

func TestLoadFileFallsBackOnBadInput(t *testing.T) {
	clearEnv(t)

	if cfg := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); cfg.Provider != ProviderNone {
		t.Fatalf("missing file should yield defaults, got %q", cfg.Provider)
	}
	if cfg := LoadFile(writeConfig(t, "provider: [unterminated")); cfg.Provider != ProviderNone {
		t.Fatalf("broken file should yield defaults, got %q", cfg.Provider)
	}
}

func TestTaxonomyConfigRejectsUnknownHintTarget(t *testing.T) {
	t.Parallel()

	tc := TaxonomyConfig{DomainHints: map[string]string{"example.com": "Astrology"}}
	if _, err := tc.Knowledge(); err == nil {
		t.Fatal("hint pointing outside the taxonomy should fail")
	}
}
