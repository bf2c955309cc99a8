package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var skippedSchemes = []string{"mailto:", "tel:", "javascript:", "#"}

// NormalizeURL drops the fragment, query and a trailing slash so one page has one key.
func NormalizeURL(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSuffix(raw, "/")
}

// InternalLinks returns the distinct normalized links on a page that start with
// base. Relative hrefs are resolved against current. Order follows the document.
func InternalLinks(base, current, html string) []string {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	pageURL, err := url.Parse(current)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || hasSkippedScheme(href) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		link := NormalizeURL(pageURL.ResolveReference(ref).String())
		if !strings.HasPrefix(link, base) || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links
}

func hasSkippedScheme(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range skippedSchemes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
