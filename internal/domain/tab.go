package domain

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// UntitledTitle replaces empty tab titles.
	UntitledTitle = "Untitled"

	keyTitleRunes = 50
)

// Tab is the immutable descriptor of one browsing destination in a working set.
type Tab struct {
	ID     int    `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// NewTab normalizes the title and derives the domain from the URL.
func NewTab(id int, title, rawURL string) Tab {
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledTitle
	}
	rawURL = strings.TrimSpace(rawURL)
	return Tab{
		ID:     id,
		Title:  title,
		URL:    rawURL,
		Domain: DomainOf(rawURL),
	}
}

// DomainOf returns the lowercase hostname without a leading "www.", or "" when
// the URL has no parseable host.
func DomainOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// TabKey identifies a tab for caching and deduplication.
type TabKey string

// Key derives the cache key. Tabs sharing a URL share a key regardless of id.
func (t Tab) Key() TabKey {
	if u := strings.ToLower(strings.TrimSpace(t.URL)); u != "" {
		return TabKey(u)
	}
	title := []rune(strings.ToLower(strings.TrimSpace(t.Title)))
	if len(title) > keyTitleRunes {
		title = title[:keyTitleRunes]
	}
	return TabKey(strconv.Itoa(t.ID) + "_" + string(title))
}
