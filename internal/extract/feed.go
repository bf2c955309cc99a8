package extract

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/mmcdole/gofeed"
)

const defaultAuthor = "Substack"

// FeedURL returns the RSS location for a newsletter URL. URLs that already end
// in /feed or .xml are used as given.
func FeedURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.HasSuffix(raw, "/feed") || strings.HasSuffix(raw, ".xml") {
		return raw
	}
	return raw + "/feed"
}

// ParseArticles parses an RSS or Atom document and returns at most max entries
// in feed order. max <= 0 means all entries.
func ParseArticles(data string, max int) ([]domain.Article, error) {
	feed, err := gofeed.NewParser().ParseString(data)
	if err != nil {
		return nil, domain.Wrap(domain.ErrFetchFailed, fmt.Errorf("failed to parse feed: %w", err))
	}
	if len(feed.Items) == 0 {
		return nil, domain.Wrap(domain.ErrSourceNotFound, fmt.Errorf("feed contains no items"))
	}

	items := feed.Items
	if max > 0 && len(items) > max {
		items = items[:max]
	}

	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		html := item.Content
		if html == "" {
			html = item.Description
		}
		articles = append(articles, domain.Article{
			Title:         strings.TrimSpace(item.Title),
			Link:          strings.TrimSpace(item.Link),
			Author:        itemAuthor(item),
			HTML:          html,
			CoverImageURL: itemImage(item, html),
		})
	}
	return articles, nil
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return defaultAuthor
}

// itemImage looks at media:content, then image enclosures, then the first <img>
// of the article body.
func itemImage(item *gofeed.Item, html string) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			medium := content.Attrs["medium"]
			if u := content.Attrs["url"]; u != "" && (medium == "" || strings.Contains(medium, "image")) {
				return u
			}
		}
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.Contains(enc.Type, "image") && enc.URL != "" {
			return enc.URL
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	return FirstImage(html)
}
