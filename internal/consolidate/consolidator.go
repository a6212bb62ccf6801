// Package consolidate merges near-duplicate category labels into canonical
// buckets before the groups reach a sink.
package consolidate

import (
	"slices"
	"sort"
	"strings"

	"TabSorter/internal/domain"
	"TabSorter/internal/taxonomy"
)

type variant struct {
	text      string
	canonical string
}

// Consolidator maps variant spellings onto canonical labels.
type Consolidator struct {
	k        *taxonomy.Knowledge
	variants []variant
}

// New builds a consolidator from the synonym table of k. Variants are tried
// longest first so that substring matching is deterministic.
func New(k *taxonomy.Knowledge) *Consolidator {
	syn := k.Synonyms()
	variants := make([]variant, 0, len(syn))
	for v, c := range syn {
		variants = append(variants, variant{text: v, canonical: c})
	}
	sort.Slice(variants, func(i, j int) bool {
		if len(variants[i].text) != len(variants[j].text) {
			return len(variants[i].text) > len(variants[j].text)
		}
		return variants[i].text < variants[j].text
	})
	return &Consolidator{k: k, variants: variants}
}

// Label returns the canonical bucket for one label.
func (c *Consolidator) Label(label string) string {
	label = strings.TrimSpace(label)
	if label == domain.Uncategorized {
		return label
	}
	if name, ok := c.k.Custom(label); ok {
		return name
	}
	if c.k.IsBanned(label) {
		return domain.Uncategorized
	}
	if canon, ok := c.k.Canonicalize(label); ok {
		return canon
	}

	lower := strings.ToLower(label)
	for _, v := range c.variants {
		if len(v.text) > 2 && strings.Contains(lower, v.text) {
			return v.canonical
		}
	}
	for _, canon := range c.k.Canonical() {
		if strings.Contains(lower, strings.ToLower(canon)) {
			return canon
		}
	}
	return domain.Uncategorized
}

// Consolidate merges groups whose labels map to the same bucket. Tab ids in
// each bucket are sorted and deduplicated.
func (c *Consolidator) Consolidate(groups map[string][]int) map[string][]int {
	out := make(map[string][]int, len(groups))
	for label, ids := range groups {
		bucket := c.Label(label)
		out[bucket] = append(out[bucket], ids...)
	}
	for bucket, ids := range out {
		slices.Sort(ids)
		out[bucket] = slices.Compact(ids)
	}
	return out
}
