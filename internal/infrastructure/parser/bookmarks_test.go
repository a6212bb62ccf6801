package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TabSorter/internal/domain"
	"TabSorter/internal/tabsource"
)

const bookmarkExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3>Reading</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/doc/effective_go">Effective
            Go</A>
        <DT><A HREF="https://news.ycombinator.com/">Hacker News</A>
    </DL><p>
    <DT><H3>Work</H3>
    <DL><p>
        <DT><A HREF="https://mail.google.com/mail/u/0/">Inbox</A>
        <DT><A HREF="javascript:alert(1)">Bookmarklet</A>
        <DT><A HREF="chrome://settings">Settings</A>
    </DL><p>
</DL><p>`

type tabRow struct {
	ID    int
	Title string
	URL   string
}

func rows(tabs []domain.Tab) []tabRow {
	out := make([]tabRow, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, tabRow{ID: t.ID, Title: t.Title, URL: t.URL})
	}
	return out
}

func TestHTMLReaderReadsWebLinks(t *testing.T) {
	t.Parallel()

	tabs, err := HTMLReader{}.Read(context.Background(), strings.NewReader(bookmarkExport), tabsource.Request{})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	want := []tabRow{
		{ID: 1, Title: "Effective Go", URL: "https://go.dev/doc/effective_go"},
		{ID: 2, Title: "Hacker News", URL: "https://news.ycombinator.com/"},
		{ID: 3, Title: "Inbox", URL: "https://mail.google.com/mail/u/0/"},
	}
	if diff := cmp.Diff(want, rows(tabs)); diff != "" {
		t.Fatalf("tabs mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLReaderFolder(t *testing.T) {
	t.Parallel()

	req := tabsource.Request{Options: map[string]string{folderOption: "reading"}}
	tabs, err := HTMLReader{}.Read(context.Background(), strings.NewReader(bookmarkExport), req)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(tabs) != 2 || tabs[1].Title != "Hacker News" {
		t.Fatalf("expected only the Reading folder, got %+v", tabs)
	}

	req.Options[folderOption] = "Archive"
	if _, err := (HTMLReader{}).Read(context.Background(), strings.NewReader(bookmarkExport), req); err == nil {
		t.Fatal("expected missing folder error")
	}
}

func TestJSONReaderShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		window string
		want   []tabRow
	}{
		{
			name:  "bare list",
			input: `[{"id":4,"title":"Go","url":"https://go.dev"}]`,
			want:  []tabRow{{ID: 4, Title: "Go", URL: "https://go.dev"}},
		},
		{
			name:  "tabs document",
			input: `{"tabs":[{"title":"Go","url":"https://go.dev"}]}`,
			want:  []tabRow{{Title: "Go", URL: "https://go.dev"}},
		},
		{
			name:   "selected window",
			input:  `{"windows":[{"id":"1","tabs":[{"id":1,"url":"https://a.example"}]},{"id":"2","tabs":[{"id":7,"url":"https://b.example"}]}]}`,
			window: "2",
			want:   []tabRow{{ID: 7, URL: "https://b.example"}},
		},
		{
			name:  "all windows",
			input: `{"windows":[{"id":"1","tabs":[{"id":1,"url":"https://a.example"}]},{"id":"2","tabs":[{"id":7,"url":"https://b.example"}]}]}`,
			want:  []tabRow{{ID: 1, URL: "https://a.example"}, {ID: 7, URL: "https://b.example"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tabs, err := JSONReader{}.Read(context.Background(), strings.NewReader(tc.input), tabsource.Request{WindowID: tc.window})
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if diff := cmp.Diff(tc.want, rows(tabs)); diff != "" {
				t.Fatalf("tabs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONReaderErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := (JSONReader{}).Read(ctx, strings.NewReader(`{broken`), tabsource.Request{}); err == nil {
		t.Fatal("expected decode error")
	}
	input := `{"windows":[{"id":"1","tabs":[{"id":1,"url":"https://a.example"}]}]}`
	if _, err := (JSONReader{}).Read(ctx, strings.NewReader(input), tabsource.Request{WindowID: "9"}); err == nil {
		t.Fatal("expected unknown window error")
	}
}

func TestYAMLReader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	list := `
- id: 2
  title: Go blog
  url: https://go.dev/blog
`
	tabs, err := YAMLReader{}.Read(ctx, strings.NewReader(list), tabsource.Request{})
	if err != nil {
		t.Fatalf("Read(list) returned error: %v", err)
	}
	if diff := cmp.Diff([]tabRow{{ID: 2, Title: "Go blog", URL: "https://go.dev/blog"}}, rows(tabs)); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	windows := `
windows:
  - id: main
    tabs:
      - title: Inbox
        url: https://mail.google.com
  - id: side
    tabs:
      - title: Docs
        url: https://docs.python.org/3/
`
	tabs, err = YAMLReader{}.Read(ctx, strings.NewReader(windows), tabsource.Request{WindowID: "side"})
	if err != nil {
		t.Fatalf("Read(windows) returned error: %v", err)
	}
	if diff := cmp.Diff([]tabRow{{Title: "Docs", URL: "https://docs.python.org/3/"}}, rows(tabs)); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	tests := map[string]string{
		"tabs.html":                    "html",
		"Bookmarks.HTM":                "html",
		"session.json":                 "json",
		"windows.yml":                  "yaml",
		"https://example.com/t.yaml?x": "yaml",
	}
	for location, want := range tests {
		reader, err := reg.ResolveFor("", location)
		if err != nil {
			t.Fatalf("ResolveFor(%q) returned error: %v", location, err)
		}
		if reader.Name() != want {
			t.Fatalf("ResolveFor(%q) = %s, want %s", location, reader.Name(), want)
		}
	}

	if reader, err := reg.ResolveFor("json", "tabs.txt"); err != nil || reader.Name() != "json" {
		t.Fatalf("explicit format should win over extension: %v", err)
	}
	if _, err := reg.ResolveFor("", "tabs.txt"); err == nil {
		t.Fatal("expected unknown extension error")
	}
}

func TestSplitFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg      string
		format   string
		location string
	}{
		{arg: "tabs.html", location: "tabs.html"},
		{arg: "json:tabs.txt", format: "json", location: "tabs.txt"},
		{arg: "https://example.com/tabs.json", location: "https://example.com/tabs.json"},
		{arg: "yaml:https://example.com/tabs", format: "yaml", location: "https://example.com/tabs"},
		{arg: `C:\tabs.html`, location: `C:\tabs.html`},
	}
	for _, tc := range tests {
		format, location := SplitFormat(tc.arg)
		if format != tc.format || location != tc.location {
			t.Fatalf("SplitFormat(%q) = (%q, %q), want (%q, %q)", tc.arg, format, location, tc.format, tc.location)
		}
	}
}

func TestStaticSourceNormalizes(t *testing.T) {
	t.Parallel()

	tabs, err := StaticSource{{Title: "  ", URL: "https://www.example.com/a"}, {ID: 9, Title: "Nine"}}.Tabs(context.Background())
	if err != nil {
		t.Fatalf("Tabs returned error: %v", err)
	}
	if tabs[0].ID != 1 || tabs[0].Title != domain.UntitledTitle || tabs[0].Domain == "" {
		t.Fatalf("first tab not normalized: %+v", tabs[0])
	}
	if tabs[1].ID != 9 {
		t.Fatalf("explicit ids must be kept, got %d", tabs[1].ID)
	}
}
