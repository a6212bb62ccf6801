package taxonomy

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TabSorter/internal/domain"
)

func TestDefaultCanonicalize(t *testing.T) {
	t.Parallel()

	k := Default()
	cases := map[string]string{
		"Development":      "Development",
		"development":      "Development",
		"  Coding ":        "Development",
		"machine learning": "AI & ML",
		"wiki":             "Reference",
	}
	for in, want := range cases {
		got, ok := k.Canonicalize(in)
		if !ok || got != want {
			t.Fatalf("Canonicalize(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := k.Canonicalize("Astrology"); ok {
		t.Fatal("unknown label should not canonicalize")
	}
}

func TestIsMemberIsExact(t *testing.T) {
	t.Parallel()

	k := Default()
	if !k.IsMember("Development") || !k.IsMember(domain.Uncategorized) {
		t.Fatal("canonical labels and the catch-all are members")
	}
	if k.IsMember("development") || k.IsMember("coding") {
		t.Fatal("non-canonical spellings are not members")
	}
}

func TestBannedAndRestricted(t *testing.T) {
	t.Parallel()

	k := Default()
	for _, l := range []string{"Misc", "OTHER", "uncategorized"} {
		if !k.IsBanned(l) {
			t.Fatalf("%q should be banned", l)
		}
	}
	if !k.IsRestricted("research") {
		t.Fatal("Research should be restricted")
	}
	if k.IsRestricted("Education") {
		t.Fatal("Education should not be restricted")
	}
}

func TestDomainHintSuffixMatch(t *testing.T) {
	t.Parallel()

	k := Default()
	if cat, ok := k.DomainHint("gist.github.com"); !ok || cat != "Development" {
		t.Fatalf("subdomain should match: %q %v", cat, ok)
	}
	if cat, ok := k.DomainHint("WWW.GitHub.com"); !ok || cat != "Development" {
		t.Fatalf("www prefix should be ignored: %q %v", cat, ok)
	}
	if _, ok := k.DomainHint("notgithub.com"); ok {
		t.Fatal("substring hosts must not match")
	}
	if !k.IsAcademicDomain("export.arxiv.org") {
		t.Fatal("arxiv subdomain should be academic")
	}
	if cat, ok := k.CriticalCategory("m.imdb.com"); !ok || cat != "Entertainment" {
		t.Fatalf("imdb should be critical Entertainment, got %q %v", cat, ok)
	}

	hints := k.HintsFor([]string{"github.com", "example.com", "mail.google.com"})
	want := map[string]string{"github.com": "Development", "mail.google.com": "Email"}
	if diff := cmp.Diff(want, hints); diff != "" {
		t.Fatalf("HintsFor mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomCategories(t *testing.T) {
	t.Parallel()

	k, err := New(DefaultConfig([]Custom{
		{Name: " Side Projects ", Description: "hobby code"},
		{Name: "side projects"},
		{Name: "Development"},
	}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	want := []Custom{{Name: "Side Projects", Description: "hobby code"}}
	if diff := cmp.Diff(want, k.CustomCategories()); diff != "" {
		t.Fatalf("custom categories mismatch (-want +got):\n%s", diff)
	}

	allowed := k.Allowed()
	if allowed[len(allowed)-1] != "Side Projects" {
		t.Fatalf("custom labels should follow canonical ones: %v", allowed)
	}
	if name, ok := k.Canonicalize("SIDE PROJECTS"); !ok || name != "Side Projects" {
		t.Fatalf("custom label should canonicalize to its spelling, got %q", name)
	}
	if !k.IsMember("Side Projects") {
		t.Fatal("custom label should be a member")
	}
}

func TestNewRejectsInconsistentTables(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"empty canonical":          func(c *Config) { c.Canonical = nil },
		"banned canonical":         func(c *Config) { c.Canonical = append(c.Canonical, "Misc") },
		"foreign synonym":          func(c *Config) { c.Synonyms["astro"] = "Astrology" },
		"foreign hint":             func(c *Config) { c.DomainHints["example.com"] = "Nope" },
		"foreign critical":         func(c *Config) { c.CriticalDomains["example.com"] = "Nope" },
		"restricted not canonical": func(c *Config) { c.Restricted = []string{"Nope"} },
		"banned custom":            func(c *Config) { c.Custom = []Custom{{Name: "Other"}} },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig(nil)
		mutate(&cfg)
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if !strings.HasPrefix(err.Error(), "taxonomy:") {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}
}

func TestDefaultConfigIsACopy(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig(nil)
	cfg.DomainHints["example.test"] = "Work"
	cfg.Canonical[0] = "Changed"

	if _, ok := DefaultDomainHints["example.test"]; ok {
		t.Fatal("DefaultConfig leaked the shared hint table")
	}
	if DefaultCanonical[0] == "Changed" {
		t.Fatal("DefaultConfig leaked the shared canonical list")
	}
}

func TestSortedHints(t *testing.T) {
	t.Parallel()

	k, err := New(Config{
		Canonical:   []string{"Work", "News"},
		DomainHints: map[string]string{"b.com": "News", "a.com": "work"},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	want := [][2]string{{"a.com", "Work"}, {"b.com", "News"}}
	if diff := cmp.Diff(want, k.SortedHints()); diff != "" {
		t.Fatalf("SortedHints mismatch (-want +got):\n%s", diff)
	}
}
