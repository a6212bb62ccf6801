// Package prompt owns the fixed instruction contract sent to every remote
// classifier and the parser for its answers.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
)

// Schema is the JSON schema of a classifier answer, for providers that
// support structured output.
const Schema = `{
  "type": "object",
  "properties": {
    "assignments": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "key": {"type": "string"},
          "category": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        },
        "required": ["key", "category", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["assignments"],
  "additionalProperties": false
}`

var examples = []struct {
	title, url, category string
}{
	{"Pull requests · golang/go", "https://github.com/golang/go/pulls", "Development"},
	{"Inbox (3) - Gmail", "https://mail.google.com/mail/u/0/#inbox", "Email"},
	{"Dune: Part Two (2024) - IMDb", "https://www.imdb.com/title/tt15239678/", "Entertainment"},
	{"Your Cart", "https://www.amazon.com/gp/cart/view.html", "Shopping"},
	{"Flights to Lisbon", "https://www.google.com/travel/flights", "Travel"},
}

// System returns the system instruction for the allowed label set.
func System(allowed []string, custom []ports.CustomCategory) string {
	var sb strings.Builder
	sb.WriteString("You sort browser tabs into categories. Assign every tab exactly one category.\n\n")
	sb.WriteString("Allowed categories (use these exact spellings, nothing else):\n")
	for _, c := range allowed {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}

	if len(custom) > 0 {
		sb.WriteString("\nUser categories (prefer them when they fit):\n")
		for _, c := range custom {
			sb.WriteString("- ")
			sb.WriteString(c.Name)
			if c.Description != "" {
				sb.WriteString(": ")
				sb.WriteString(c.Description)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(`
Rules:
- Never invent a category that is not in the allowed list.
- Never answer with generic catch-alls such as "Other", "Misc", "General", "Unknown" or "Uncategorized".
- Only use "Research" for academic or scholarly content (papers, journals, preprints, university research).
- When a domain hint is given for a tab's domain, follow it unless the title clearly says otherwise.
- Confidence is a number between 0 and 1 that reflects how certain you are.
- Echo each tab's key unchanged.

Examples:
`)
	for _, ex := range examples {
		fmt.Fprintf(&sb, "- %q (%s) -> %s\n", ex.title, ex.url, ex.category)
	}

	sb.WriteString(`
Answer with JSON only, shaped as:
{"assignments": [{"key": "<key>", "category": "<allowed category>", "confidence": 0.9}]}`)
	return sb.String()
}

type tabLine struct {
	Key    domain.TabKey `json:"key"`
	Title  string        `json:"title"`
	URL    string        `json:"url,omitempty"`
	Domain string        `json:"domain,omitempty"`
}

// User returns the per-batch message listing the tabs and the domain hints
// that apply to them.
func User(req ports.ClassifyRequest) (string, error) {
	lines := make([]tabLine, len(req.Tabs))
	for i, t := range req.Tabs {
		lines[i] = tabLine{Key: t.Key, Title: t.Title, URL: t.URL, Domain: t.Domain}
	}
	tabs, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tabs: %w", err)
	}

	var sb strings.Builder
	if len(req.DomainHints) > 0 {
		hints, err := json.Marshal(req.DomainHints)
		if err != nil {
			return "", fmt.Errorf("marshal domain hints: %w", err)
		}
		sb.WriteString("Domain hints: ")
		sb.Write(hints)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Tabs:\n")
	sb.Write(tabs)
	return sb.String(), nil
}

// Build returns the system and user messages for req.
func Build(req ports.ClassifyRequest) (system, user string, err error) {
	user, err = User(req)
	if err != nil {
		return "", "", err
	}
	return System(req.AllowedCategories, req.CustomCategories), user, nil
}

// Parse decodes a classifier answer. Markdown code fences around the JSON
// are tolerated; anything else that does not decode is ErrMalformed.
func Parse(text string) (ports.ClassifyResponse, error) {
	text = stripFences(text)
	if text == "" {
		return ports.ClassifyResponse{}, fmt.Errorf("empty answer: %w", ports.ErrMalformed)
	}

	var resp ports.ClassifyResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("decode answer: %v: %w", err, ports.ErrMalformed)
	}
	return resp, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
