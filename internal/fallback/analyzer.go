// Package fallback categorizes tabs without any network access. It always
// produces a concrete taxonomy label.
package fallback

import (
	"net/url"
	"regexp"
	"strings"

	"TabSorter/internal/domain"
	"TabSorter/internal/taxonomy"
)

// DefaultLabel is the closed-world default when nothing else matches.
const DefaultLabel = "Work"

type rule struct {
	category string
	pattern  *regexp.Regexp
}

func words(category, alternation string) rule {
	return rule{category: category, pattern: regexp.MustCompile(`\b(` + alternation + `)\b`)}
}

// titleCascade is ordered; the first matching group wins.
var titleCascade = []rule{
	words("Development", `github|gitlab|pull request|merge request|commits?|repositor(y|ies)|repo|api|sdk|npm|pypi|golang|python|javascript|typescript|rust|kotlin|docker|kubernetes|terraform|stack ?overflow|debug(ging)?|compiler|localhost|code review|programming|developer`),
	words("Work", `jira|confluence|sprint|standup|roadmap|okrs?|spreadsheet|slides|crm|kanban|timesheet|quarterly|invoices?|proposal|onboarding|workspace`),
	words("Email", `inbox|gmail|outlook|e-?mail|compose|mailbox`),
	words("Communication", `slack|discord|zoom|teams|meeting|chat|messenger|whatsapp|telegram`),
	words("Entertainment", `youtube|netflix|hulu|twitch|trailers?|movies?|episodes?|season \d+|streaming|anime|tv show|watch`),
	words("Shopping", `cart|checkout|buy|deals?|sale|discount|coupons?|prices?|shop|amazon|ebay`),
	words("News", `news|breaking|headlines?|politics|elections?|editorial|opinion`),
	words("Social", `twitter|tweets?|facebook|instagram|linkedin|reddit|tiktok|followers|timeline`),
	words("Finance", `bank(ing)?|stocks?|invest(ing|ment)?|crypto|bitcoin|budget|tax(es)?|mortgage|loans?|credit card|portfolio|trading`),
	words("Travel", `flights?|hotels?|airbnb|trip|vacation|itinerary|airport|travel`),
	words("AI & ML", `chatgpt|gpt-?\d*|claude|gemini|llms?|openai|hugging ?face|machine learning|neural|ai`),
	words("Utilities", `converter|calculator|translat(e|or)|weather|timer|password|generator|pdf|compress`),
}

var pathRules = []rule{
	{"Documentation", regexp.MustCompile(`/(docs?|documentation)(/|$)`)},
	{"Work", regexp.MustCompile(`/(admin|console|dashboard)(/|$)`)},
}

var tldRules = []struct {
	suffix   string
	category string
}{
	{".edu", "Education"},
	{".gov", "Reference"},
	{".org", "Reference"},
}

// coarseFamilies cover business, personal and informational vocabulary.
var coarseFamilies = []rule{
	words("Work", `meetings?|projects?|clients?|team|reports?|agenda|contracts?|q[1-4]|business`),
	words("Food", `recipes?|cooking|restaurants?|menu`),
	words("Health", `workout|fitness|diet|symptoms?|doctor|health`),
	words("Gaming", `games?|gaming|playthrough|walkthrough`),
	words("Music", `music|songs?|album|playlist|lyrics`),
	words("Sports", `football|soccer|nba|nfl|scores?|league`),
	words("Education", `how to|guide|tutorials?|learn(ing)?|course|lessons?`),
	words("Reference", `wiki|what is|definition|meaning|encyclopedia`),
}

// Analyzer is the deterministic, network-free categorizer.
type Analyzer struct {
	k *taxonomy.Knowledge
}

// New creates an analyzer over k.
func New(k *taxonomy.Knowledge) *Analyzer {
	return &Analyzer{k: k}
}

// StrictDomainOnly returns the hinted category for host on an exact or
// subdomain match only.
func (a *Analyzer) StrictDomainOnly(host string) (string, bool) {
	if host == "" {
		return "", false
	}
	return a.k.DomainHint(host)
}

// MatchTitlePattern runs only the topic cascade and reports whether any group
// matched. Pipeline overrides rely on this strong signal, not on the defaults.
func (a *Analyzer) MatchTitlePattern(title string) (string, bool) {
	return a.first(titleCascade, strings.ToLower(title))
}

// AnalyzeTitle always returns a taxonomy label; it never returns "" or the
// terminal catch-all.
func (a *Analyzer) AnalyzeTitle(title, rawURL string) string {
	lower := strings.ToLower(title)
	if cat, ok := a.first(titleCascade, lower); ok {
		return cat
	}

	if path := urlPath(rawURL); path != "" {
		if cat, ok := a.first(pathRules, path); ok {
			return cat
		}
	}

	host := domain.DomainOf(rawURL)
	for _, r := range tldRules {
		if strings.HasSuffix(host, r.suffix) {
			if cat, ok := a.k.Canonicalize(r.category); ok {
				return cat
			}
		}
	}

	if cat, ok := a.first(coarseFamilies, lower); ok {
		return cat
	}

	return a.defaultLabel()
}

// Analyze runs the domain tier (hints, then critical sites), then the title
// tier.
func (a *Analyzer) Analyze(t domain.Tab) (string, domain.Source) {
	if cat, ok := a.StrictDomainOnly(t.Domain); ok {
		return cat, domain.SourceDomainFallback
	}
	if cat, ok := a.k.CriticalCategory(t.Domain); ok {
		return cat, domain.SourceDomainFallback
	}
	return a.AnalyzeTitle(t.Title, t.URL), domain.SourceTitleFallback
}

func (a *Analyzer) first(rules []rule, text string) (string, bool) {
	for _, r := range rules {
		if !r.pattern.MatchString(text) {
			continue
		}
		if cat, ok := a.k.Canonicalize(r.category); ok {
			return cat, true
		}
	}
	return "", false
}

func (a *Analyzer) defaultLabel() string {
	if cat, ok := a.k.Canonicalize(DefaultLabel); ok {
		return cat
	}
	return a.k.Canonical()[0]
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Path)
}
