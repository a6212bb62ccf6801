// Package validator enforces taxonomy membership, rejects banned labels, gates
// restricted labels behind evidence and corrects known classifier mistakes.
package validator

import (
	"regexp"
	"strings"

	"TabSorter/internal/domain"
	"TabSorter/internal/taxonomy"
)

const (
	// CorrectedConfidence is pinned on hard critical-domain overrides.
	CorrectedConfidence = 0.95
	// ReviewConfidenceCap bounds confidence when a weak signal disagrees.
	ReviewConfidenceCap = 0.6

	academicDomainConfidence  = 0.95
	academicPatternConfidence = 0.85
)

// Context is the evidence available for a label decision.
type Context struct {
	URL    string
	Title  string
	Domain string
}

// ContextFor builds the evidence context of a tab.
func ContextFor(t domain.Tab) Context {
	return Context{URL: t.URL, Title: t.Title, Domain: t.Domain}
}

// StrictResult is the verdict of ValidateStrict.
type StrictResult struct {
	Allowed              bool
	Reason               string
	Category             string
	MinConfidence        float64
	SuggestUncategorized bool
	SuggestAlternatives  []string
}

// Correction is the outcome of critical-mismatch correction.
type Correction struct {
	Category    string
	Confidence  float64
	NeedsReview bool
	Corrected   bool
}

var academicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bpeer[- ]?review`),
	regexp.MustCompile(`\bjournals?\b`),
	regexp.MustCompile(`\buniversit(y|ies)\b`),
	regexp.MustCompile(`\bdoi\b|doi\.org/|/doi/`),
	regexp.MustCompile(`\bproceedings\b`),
	regexp.MustCompile(`\bpreprints?\b`),
	regexp.MustCompile(`\b(thesis|dissertation)\b`),
	regexp.MustCompile(`\b(research|conference|scientific) papers?\b`),
	regexp.MustCompile(`\bscholar(ly)?\b`),
	regexp.MustCompile(`\bpubmed\b|\barxiv\b`),
}

var restrictedAlternatives = []string{"Education", "Reference", "News"}

type softRule struct {
	category string
	pattern  *regexp.Regexp
}

var softRules = []softRule{
	{"Shopping", regexp.MustCompile(`\b(checkout|shopping cart|add to cart|your cart|buy now|order summary|place order)\b`)},
	{"Email", regexp.MustCompile(`\b(inbox|compose message|unread messages)\b`)},
	{"Development", regexp.MustCompile(`\b(pull request|merge request|stack trace|repository)\b`)},
	{"Finance", regexp.MustCompile(`\b(account balance|bank statement|stock quote|portfolio)\b`)},
	{"Travel", regexp.MustCompile(`\b(flights?|boarding pass|hotel reservation|itinerary)\b`)},
}

// Validator applies the taxonomy rules of one Knowledge value.
type Validator struct {
	k *taxonomy.Knowledge
}

// New creates a validator over k.
func New(k *taxonomy.Knowledge) *Validator {
	return &Validator{k: k}
}

// ValidateStrict decides whether label may be assigned given the evidence.
func (v *Validator) ValidateStrict(label string, ctx Context) StrictResult {
	label = strings.TrimSpace(label)
	if label == "" {
		return StrictResult{Reason: "empty label", SuggestUncategorized: true}
	}

	if name, ok := v.k.Custom(label); ok {
		return StrictResult{Allowed: true, Reason: "custom category", Category: name}
	}

	if v.k.IsBanned(label) {
		return StrictResult{Reason: "banned generic label", SuggestUncategorized: true}
	}

	canon, ok := v.k.Canonicalize(label)
	if !ok {
		return StrictResult{
			Reason:               "not in taxonomy",
			SuggestUncategorized: true,
			SuggestAlternatives:  v.members(restrictedAlternatives),
		}
	}

	if v.k.IsRestricted(canon) {
		return v.checkRestricted(canon, ctx)
	}

	return StrictResult{Allowed: true, Reason: "canonical category", Category: canon}
}

func (v *Validator) checkRestricted(canon string, ctx Context) StrictResult {
	host := ctx.Domain
	if host == "" {
		host = domain.DomainOf(ctx.URL)
	}
	if v.k.IsAcademicDomain(host) {
		return StrictResult{
			Allowed:       true,
			Reason:        "academic domain",
			Category:      canon,
			MinConfidence: academicDomainConfidence,
		}
	}

	text := strings.ToLower(ctx.Title + " " + ctx.URL)
	for _, p := range academicPatterns {
		if p.MatchString(text) {
			return StrictResult{
				Allowed:       true,
				Reason:        "academic content pattern",
				Category:      canon,
				MinConfidence: academicPatternConfidence,
			}
		}
	}

	return StrictResult{
		Reason:               "restricted category without academic evidence",
		SuggestUncategorized: true,
		SuggestAlternatives:  v.members(restrictedAlternatives),
	}
}

// ValidateCategory corrects proposed using domain identity (hard override) and
// strong title/URL patterns (soft review flag).
func (v *Validator) ValidateCategory(rawURL, title, proposed string, confidence float64) Correction {
	out := Correction{Category: proposed, Confidence: confidence}

	if crit, ok := v.k.CriticalCategory(domain.DomainOf(rawURL)); ok {
		if !strings.EqualFold(crit, proposed) {
			return Correction{Category: crit, Confidence: CorrectedConfidence, Corrected: true}
		}
		return out
	}

	text := strings.ToLower(title + " " + rawURL)
	matched := false
	for _, rule := range softRules {
		if !rule.pattern.MatchString(text) {
			continue
		}
		if strings.EqualFold(rule.category, proposed) {
			return out
		}
		matched = true
	}
	if matched {
		out.NeedsReview = true
		out.Confidence = min(out.Confidence, ReviewConfidenceCap)
	}
	return out
}

func (v *Validator) members(labels []string) []string {
	var out []string
	for _, l := range labels {
		if canon, ok := v.k.Canonicalize(l); ok {
			out = append(out, canon)
		}
	}
	return out
}
