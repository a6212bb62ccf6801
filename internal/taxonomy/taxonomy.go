// Package taxonomy holds the immutable category knowledge shared by the
// validator, the fallback analyzer, the consolidator and the prompt builder.
package taxonomy

import (
	"fmt"
	"sort"
	"strings"

	"TabSorter/internal/domain"
)

// Custom is a user-defined category supplied by configuration.
type Custom struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Config is the raw table set used to build a Knowledge value.
type Config struct {
	Canonical       []string
	Custom          []Custom
	Banned          []string
	Restricted      []string
	Synonyms        map[string]string
	DomainHints     map[string]string
	CriticalDomains map[string]string
	AcademicDomains []string
}

// Knowledge is a validated, read-only view over the category tables.
type Knowledge struct {
	canonical       []string
	canonicalByKey  map[string]string
	custom          []Custom
	customByKey     map[string]string
	banned          map[string]struct{}
	restricted      map[string]struct{}
	synonyms        map[string]string
	domainHints     map[string]string
	criticalDomains map[string]string
	academicDomains map[string]struct{}
}

// New validates cfg and builds a Knowledge value. Every table target must be a
// canonical category so deterministic sources can never emit a foreign label.
func New(cfg Config) (*Knowledge, error) {
	if len(cfg.Canonical) == 0 {
		return nil, fmt.Errorf("taxonomy: canonical category list is empty")
	}

	k := &Knowledge{
		canonicalByKey:  make(map[string]string, len(cfg.Canonical)),
		customByKey:     make(map[string]string, len(cfg.Custom)),
		banned:          make(map[string]struct{}, len(cfg.Banned)),
		restricted:      make(map[string]struct{}, len(cfg.Restricted)),
		synonyms:        make(map[string]string, len(cfg.Synonyms)),
		domainHints:     make(map[string]string, len(cfg.DomainHints)),
		criticalDomains: make(map[string]string, len(cfg.CriticalDomains)),
		academicDomains: make(map[string]struct{}, len(cfg.AcademicDomains)),
	}

	for _, b := range cfg.Banned {
		k.banned[normalize(b)] = struct{}{}
	}

	for _, c := range cfg.Canonical {
		name := strings.TrimSpace(c)
		key := normalize(name)
		if key == "" {
			continue
		}
		if _, bad := k.banned[key]; bad {
			return nil, fmt.Errorf("taxonomy: canonical category %q is banned", name)
		}
		if _, dup := k.canonicalByKey[key]; dup {
			continue
		}
		k.canonicalByKey[key] = name
		k.canonical = append(k.canonical, name)
	}

	for _, c := range cfg.Custom {
		name := strings.TrimSpace(c.Name)
		key := normalize(name)
		if key == "" {
			continue
		}
		if _, bad := k.banned[key]; bad {
			return nil, fmt.Errorf("taxonomy: custom category %q collides with a banned label", name)
		}
		if _, builtin := k.canonicalByKey[key]; builtin {
			continue
		}
		if _, dup := k.customByKey[key]; dup {
			continue
		}
		k.customByKey[key] = name
		k.custom = append(k.custom, Custom{Name: name, Description: strings.TrimSpace(c.Description)})
	}

	for _, r := range cfg.Restricted {
		key := normalize(r)
		if _, ok := k.canonicalByKey[key]; !ok {
			return nil, fmt.Errorf("taxonomy: restricted category %q is not canonical", r)
		}
		k.restricted[key] = struct{}{}
	}

	for variant, target := range cfg.Synonyms {
		canon, err := k.mustCanonical("synonym", variant, target)
		if err != nil {
			return nil, err
		}
		k.synonyms[normalize(variant)] = canon
	}

	for host, target := range cfg.DomainHints {
		canon, err := k.mustCanonical("domain hint", host, target)
		if err != nil {
			return nil, err
		}
		k.domainHints[normalize(host)] = canon
	}

	for host, target := range cfg.CriticalDomains {
		canon, err := k.mustCanonical("critical domain", host, target)
		if err != nil {
			return nil, err
		}
		k.criticalDomains[normalize(host)] = canon
	}

	for _, host := range cfg.AcademicDomains {
		k.academicDomains[normalize(host)] = struct{}{}
	}

	return k, nil
}

func (k *Knowledge) mustCanonical(table, from, target string) (string, error) {
	canon, ok := k.canonicalByKey[normalize(target)]
	if !ok {
		return "", fmt.Errorf("taxonomy: %s %q targets unknown category %q", table, from, target)
	}
	return canon, nil
}

// Canonical returns the canonical categories in configured order.
func (k *Knowledge) Canonical() []string {
	return append([]string(nil), k.canonical...)
}

// CustomCategories returns the custom categories in configured order.
func (k *Knowledge) CustomCategories() []Custom {
	return append([]Custom(nil), k.custom...)
}

// Allowed returns canonical ∪ custom labels, the list handed to remote classifiers.
func (k *Knowledge) Allowed() []string {
	out := make([]string, 0, len(k.canonical)+len(k.custom))
	out = append(out, k.canonical...)
	for _, c := range k.custom {
		out = append(out, c.Name)
	}
	return out
}

// Custom reports whether label names a custom category and returns its spelling.
func (k *Knowledge) Custom(label string) (string, bool) {
	name, ok := k.customByKey[normalize(label)]
	return name, ok
}

// IsBanned reports whether label is a rejected generic label.
func (k *Knowledge) IsBanned(label string) bool {
	_, ok := k.banned[normalize(label)]
	return ok
}

// IsRestricted reports whether label requires corroborating evidence.
func (k *Knowledge) IsRestricted(label string) bool {
	_, ok := k.restricted[normalize(label)]
	return ok
}

// Canonicalize maps label to its canonical or custom spelling, following
// synonyms. The bool is false when label is not a taxonomy member.
func (k *Knowledge) Canonicalize(label string) (string, bool) {
	key := normalize(label)
	if key == "" {
		return "", false
	}
	if name, ok := k.customByKey[key]; ok {
		return name, true
	}
	if name, ok := k.canonicalByKey[key]; ok {
		return name, true
	}
	if name, ok := k.synonyms[key]; ok {
		return name, true
	}
	return "", false
}

// IsMember reports whether label is canonical, custom or the terminal catch-all.
func (k *Knowledge) IsMember(label string) bool {
	if label == domain.Uncategorized {
		return true
	}
	if name, ok := k.canonicalByKey[normalize(label)]; ok {
		return name == label
	}
	name, ok := k.customByKey[normalize(label)]
	return ok && name == label
}

// Synonyms returns the variant → canonical table, variants lowercased.
func (k *Knowledge) Synonyms() map[string]string {
	out := make(map[string]string, len(k.synonyms))
	for v, c := range k.synonyms {
		out[v] = c
	}
	return out
}

// DomainHint returns the hinted category for host on an exact or subdomain
// match. Substrings never match: "notgithub.com" is not "github.com".
func (k *Knowledge) DomainHint(host string) (string, bool) {
	return lookupSuffix(k.domainHints, host)
}

// CriticalCategory returns the unambiguous category of a well-known site.
func (k *Knowledge) CriticalCategory(host string) (string, bool) {
	return lookupSuffix(k.criticalDomains, host)
}

// IsAcademicDomain reports whether host belongs to a known scholarly site.
func (k *Knowledge) IsAcademicDomain(host string) bool {
	_, ok := lookupSuffix(k.academicDomains, host)
	return ok
}

// HintsFor returns the domain hints that apply to the given hosts.
func (k *Knowledge) HintsFor(hosts []string) map[string]string {
	out := map[string]string{}
	for _, h := range hosts {
		if cat, ok := k.DomainHint(h); ok {
			out[h] = cat
		}
	}
	return out
}

// SortedHints returns every domain hint ordered by host, for prompt examples.
func (k *Knowledge) SortedHints() [][2]string {
	hosts := make([]string, 0, len(k.domainHints))
	for h := range k.domainHints {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	out := make([][2]string, len(hosts))
	for i, h := range hosts {
		out[i] = [2]string{h, k.domainHints[h]}
	}
	return out
}

func lookupSuffix[V any](table map[string]V, host string) (V, bool) {
	var zero V
	host = strings.TrimPrefix(normalize(host), "www.")
	for host != "" {
		if v, ok := table[host]; ok {
			return v, true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			break
		}
		host = host[dot+1:]
	}
	return zero, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
