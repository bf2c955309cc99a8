// Package podcast resolves podcast share links to the episode's audio file
// through the show page, the iTunes directory and the show's RSS feed.
package podcast

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloo-solutions/docseeder/internal/domain"
)

// URLResolver follows redirects to the final URL of a link.
type URLResolver interface {
	ResolveURL(ctx context.Context, rawURL string) (string, error)
}

// CanonicalURL follows share-link redirects and drops Spotify tracking
// parameters. The input is returned unchanged when resolution fails.
func CanonicalURL(ctx context.Context, resolver URLResolver, rawURL string) string {
	final, err := resolver.ResolveURL(ctx, rawURL)
	if err != nil || final == "" {
		final = rawURL
	}
	return stripSpotifyQuery(final)
}

func stripSpotifyQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "spotify.com") {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// PageMetadata is what an episode page says about itself.
type PageMetadata struct {
	ShowName string
	Title    string
	ImageURL string
}

// ParseEpisodePage reads the show and episode names from an episode page.
// Spotify titles look like "Episode - Show | Podcast on Spotify"; og:title holds
// the episode alone.
func ParseEpisodePage(html string) (*PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, domain.Wrap(domain.ErrMetadataNotFound, err)
	}

	episode, _ := doc.Find("meta[property='og:title']").First().Attr("content")
	episode = strings.TrimSpace(episode)
	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	image, _ := doc.Find("meta[property='og:image']").First().Attr("content")

	show := ""
	if parts := strings.Split(pageTitle, " - "); len(parts) > 1 {
		if episode == "" {
			episode = strings.TrimSpace(parts[0])
		}
		show = beforePipe(parts[len(parts)-1])
	} else {
		show = beforePipe(pageTitle)
	}

	episode = cleanTitle(episode)
	if episode == "" || show == "" {
		return nil, domain.Wrap(domain.ErrMetadataNotFound, fmt.Errorf("page title %q", pageTitle))
	}

	return &PageMetadata{ShowName: show, Title: episode, ImageURL: strings.TrimSpace(image)}, nil
}

func beforePipe(s string) string {
	if i := strings.Index(s, "|"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func cleanTitle(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " | Spotify", ""))
}
