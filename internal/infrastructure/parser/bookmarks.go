package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"TabSorter/internal/domain"
	"TabSorter/internal/tabsource"
)

// folderOption restricts an HTML export to one bookmark folder.
const folderOption = "folder"

// HTMLReader extracts tabs from HTML exports: Netscape bookmark files and
// "save all tabs" pages are both lists of anchors.
type HTMLReader struct{}

var _ tabsource.Reader = HTMLReader{}

// Name identifies the format inside the registry.
func (HTMLReader) Name() string { return "html" }

// Extensions lists the file extensions handled by this reader.
func (HTMLReader) Extensions() []string { return []string{".html", ".htm"} }

// Read parses the document and returns one tab per web link.
func (HTMLReader) Read(_ context.Context, r io.Reader, req tabsource.Request) ([]domain.Tab, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	scope := doc.Selection
	if folder := strings.TrimSpace(req.Options[folderOption]); folder != "" {
		scope = findFolder(doc, folder)
		if scope.Length() == 0 {
			return nil, fmt.Errorf("bookmark folder %q not found", folder)
		}
	}

	return extractTabs(scope), nil
}

// findFolder returns the list that follows the folder heading.
func findFolder(doc *goquery.Document, name string) *goquery.Selection {
	heading := doc.Find("h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(s.Text()), name)
	}).First()
	if heading.Length() == 0 {
		return heading
	}
	if list := heading.NextAllFiltered("dl").First(); list.Length() > 0 {
		return list
	}
	return heading.Parent().Find("dl").First()
}

func extractTabs(scope *goquery.Selection) []domain.Tab {
	var tabs []domain.Tab
	scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !isWebLink(href) {
			return
		}
		tabs = append(tabs, domain.Tab{
			ID:    len(tabs) + 1,
			Title: strings.Join(strings.Fields(a.Text()), " "),
			URL:   href,
		})
	})
	return tabs
}

func isWebLink(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
