package podcast

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/mmcdole/gofeed"
)

// An RSS entry at least this similar to the episode title is accepted when no
// title contains the other.
const episodeMatchRatio = 0.65

// FeedEpisode is the entry of a show feed that matched an episode title.
type FeedEpisode struct {
	Title    string
	AudioURL string
	ImageURL string
}

// MatchEpisode finds title in an RSS document. An entry whose title contains
// the target, or is contained by it, wins immediately; otherwise the most
// similar entry is used if it clears episodeMatchRatio.
func MatchEpisode(feedXML, title string) (*FeedEpisode, error) {
	feed, err := gofeed.NewParser().ParseString(feedXML)
	if err != nil {
		return nil, domain.Wrap(domain.ErrFetchFailed, fmt.Errorf("failed to parse feed: %w", err))
	}

	target := strings.ToLower(strings.TrimSpace(title))
	var best *gofeed.Item
	bestRatio := 0.0
	for _, item := range feed.Items {
		candidate := strings.ToLower(strings.TrimSpace(item.Title))
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, target) || strings.Contains(target, candidate) {
			return toFeedEpisode(feed, item)
		}
		if ratio := Similarity(target, candidate); ratio > bestRatio {
			best, bestRatio = item, ratio
		}
	}

	if best == nil || bestRatio <= episodeMatchRatio {
		return nil, domain.Wrap(domain.ErrEpisodeNotFound, fmt.Errorf("%q (best match %.2f)", title, bestRatio))
	}
	return toFeedEpisode(feed, best)
}

func toFeedEpisode(feed *gofeed.Feed, item *gofeed.Item) (*FeedEpisode, error) {
	audio := audioLink(item)
	if audio == "" {
		return nil, domain.Wrap(domain.ErrNoAudioLink, fmt.Errorf("%q", item.Title))
	}

	image := ""
	if item.Image != nil {
		image = item.Image.URL
	} else if feed.Image != nil {
		image = feed.Image.URL
	}

	return &FeedEpisode{Title: strings.TrimSpace(item.Title), AudioURL: audio, ImageURL: image}, nil
}

// audioLink returns the first enclosure that is audio/mpeg or ends in .mp3.
func audioLink(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "audio/mpeg" || strings.HasSuffix(strings.ToLower(stripQuery(enc.URL)), ".mp3") {
			return enc.URL
		}
	}
	return ""
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
