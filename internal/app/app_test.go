package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TabSorter/internal/config"
	"TabSorter/internal/domain"
	"TabSorter/internal/infrastructure/parser"
)

func TestOrganizeOffline(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Provider: config.ProviderNone,
		Storage:  config.StorageConfig{Driver: config.StorageMemory},
		Sink:     config.SinkConfig{Format: "json"},
	}
	var out bytes.Buffer
	a, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler), &out)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	source := parser.StaticSource{
		domain.NewTab(1, "golang/go", "https://github.com/golang/go"),
		domain.NewTab(2, "Random thoughts", "https://blog.example.xyz/post"),
	}
	res, err := a.Organize(context.Background(), "main", source)
	if err != nil {
		t.Fatalf("Organize returned error: %v", err)
	}
	if res.RemoteContributed {
		t.Fatal("offline run cannot have remote contributions")
	}

	var published domain.Grouping
	if err := json.Unmarshal(out.Bytes(), &published); err != nil {
		t.Fatalf("sink output is not JSON: %v\n%s", err, out.String())
	}
	want := domain.Grouping{WindowID: "main", Groups: map[string][]int{"Development": {1}, "Work": {2}}}
	if diff := cmp.Diff(want, published); diff != "" {
		t.Fatalf("published grouping mismatch (-want +got):\n%s", diff)
	}

	stats, err := a.CacheStats(context.Background())
	if err != nil {
		t.Fatalf("CacheStats returned error: %v", err)
	}
	if stats.Entries != 2 {
		t.Fatalf("both tabs should be cached, got %d", stats.Entries)
	}

	removed, err := a.ClearCache(context.Background(), 0.8, false)
	if err != nil || removed != 1 {
		t.Fatalf("ClearCache = %d, %v; want the title fallback entry removed", removed, err)
	}
	items, err := a.ReviewItems(context.Background())
	if err != nil || len(items) != 0 {
		t.Fatalf("offline runs queue nothing for review, got %v %v", items, err)
	}
}

func TestClassifierSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.Config
		wantNil bool
		wantErr bool
	}{
		{name: "none", cfg: config.Config{Provider: config.ProviderNone}, wantNil: true},
		{name: "openai without key", cfg: config.Config{Provider: config.ProviderOpenAI}, wantNil: true, wantErr: true},
		{name: "openai", cfg: config.Config{Provider: config.ProviderOpenAI, OpenAI: config.OpenAIConfig{APIKey: "k"}}},
		{name: "anthropic", cfg: config.Config{Provider: config.ProviderAnthropic, Anthropic: config.AnthropicConfig{APIKey: "k"}}},
		{name: "service without url", cfg: config.Config{Provider: config.ProviderService}, wantNil: true, wantErr: true},
		{name: "service", cfg: config.Config{Provider: config.ProviderService, Service: config.ServiceConfig{URL: "http://localhost:9"}}},
		{name: "unknown", cfg: config.Config{Provider: "oracle"}, wantNil: true, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := &Application{cfg: tc.cfg}
			c, err := a.classifier(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tc.wantErr)
			}
			if (c == nil) != tc.wantNil {
				t.Fatalf("classifier = %v, wantNil %v", c, tc.wantNil)
			}
		})
	}
}
