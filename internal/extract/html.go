// Package extract turns fetched HTML, feeds and PDF files into plain text.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// MainText returns the readable body text of a page. Readability output is
// preferred; when it finds nothing the whole page text is used with script,
// style, nav and footer elements removed.
func MainText(html, pageURL string) string {
	var base *url.URL
	if u, err := url.Parse(pageURL); err == nil {
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(html), base)
	if err == nil {
		if text := collapseSpace(article.TextContent); text != "" {
			return text
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer").Remove()
	return collapseSpace(doc.Find("body").Text())
}

// Title returns the page <title>, then og:title, then fallback.
func Title(html, fallback string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fallback
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return fallback
}

// CleanArticleHTML strips scripts, styles, buttons and subscribe widgets from
// newsletter HTML and returns the remaining text with whitespace collapsed.
func CleanArticleHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, button").Remove()
	doc.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if strings.Contains(class, "subscribe") {
			sel.Remove()
		}
	})

	var parts []string
	doc.Find("body").Contents().Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, textWithSpaces(sel))
	})
	return collapseSpace(strings.Join(parts, " "))
}

// FirstImage returns the src of the first <img> in html.
func FirstImage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// MetaContent returns the content of <meta property=name> or <meta name=name>.
func MetaContent(html, name string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, sel := range []string{"meta[property='" + name + "']", "meta[name='" + name + "']"} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// textWithSpaces joins text nodes with a space so adjacent block elements do
// not run together.
func textWithSpaces(sel *goquery.Selection) string {
	if goquery.NodeName(sel) == "#text" {
		return sel.Text()
	}
	var parts []string
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		parts = append(parts, textWithSpaces(child))
	})
	return strings.Join(parts, " ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
