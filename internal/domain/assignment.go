package domain

import "time"

// Uncategorized is the terminal catch-all label reserved for the safety net.
const Uncategorized = "Uncategorized"

// Source tags where an assignment came from.
type Source string

const (
	SourceCache          Source = "cache"
	SourcePreFilter      Source = "domain_pre_filter"
	SourcePass1          Source = "ai_pass1"
	SourcePass2          Source = "ai_pass2"
	SourcePass3          Source = "ai_pass3"
	SourceDomainFallback Source = "domain_fallback"
	SourceTitleFallback  Source = "title_analysis_fallback"
	SourceSafetyNet      Source = "safety_net"
)

// Remote reports whether the source is one of the remote classification passes.
func (s Source) Remote() bool {
	return s == SourcePass1 || s == SourcePass2 || s == SourcePass3
}

// Status enumerates the state a tab record reached inside one pipeline run.
type Status int

const (
	StatusUnresolved Status = iota
	StatusCached
	StatusPrefiltered
	StatusPass1
	StatusPass2
	StatusPass3
	StatusFallback
	StatusSafetyNet
)

var statusNames = [...]string{"unresolved", "cached", "prefiltered", "pass1", "pass2", "pass3", "fallback", "safetynet"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Assignment is one resolved category for one tab.
type Assignment struct {
	Key         TabKey  `json:"key"`
	TabID       int     `json:"tabId"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Source      Source  `json:"source"`
	Corrected   bool    `json:"corrected,omitempty"`
	NeedsReview bool    `json:"needsReview,omitempty"`
}

// CacheEntry is the persisted form of the last known category for a key.
// Entries are always replaced wholesale.
type CacheEntry struct {
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Timestamp   int64   `json:"timestamp"`
	NeedsReview bool    `json:"needsReview,omitempty"`
	Corrected   bool    `json:"corrected,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// EntryFor converts an assignment into a cache entry stamped at now.
func EntryFor(a Assignment, now time.Time) CacheEntry {
	return CacheEntry{
		Category:    a.Category,
		Confidence:  a.Confidence,
		Timestamp:   now.UnixMilli(),
		NeedsReview: a.NeedsReview,
		Corrected:   a.Corrected,
		Source:      string(a.Source),
	}
}

// ReviewItem records a low-confidence assignment for out-of-band reprocessing.
type ReviewItem struct {
	Key        TabKey  `json:"key"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
	Timestamp  int64   `json:"timestamp"`
}

// Grouping is the consolidated category → tab ids map handed to a sink.
type Grouping struct {
	WindowID string           `json:"windowId"`
	Groups   map[string][]int `json:"groups"`
}
