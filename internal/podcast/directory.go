package podcast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
)

const (
	// DefaultDirectoryURL is the iTunes Search API endpoint.
	DefaultDirectoryURL = "https://itunes.apple.com/search"

	directoryResultLimit = 5
	// A directory entry at least this similar to the show name is taken at once.
	directoryAcceptRatio = 0.8
)

// Getter fetches a URL and returns the response body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Directory looks up podcast feeds by show name.
type Directory struct {
	client  Getter
	baseURL string
}

// NewDirectory creates a Directory backed by the iTunes Search API at baseURL
// (DefaultDirectoryURL when empty).
func NewDirectory(client Getter, baseURL string) *Directory {
	if baseURL == "" {
		baseURL = DefaultDirectoryURL
	}
	return &Directory{client: client, baseURL: baseURL}
}

type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []searchResult `json:"results"`
}

type searchResult struct {
	CollectionName string `json:"collectionName"`
	FeedURL        string `json:"feedUrl"`
}

// FindFeed returns the RSS feed URL of the directory entry closest to showName.
func (d *Directory) FindFeed(ctx context.Context, showName string) (string, error) {
	term := strings.TrimSpace(strings.SplitN(showName, ":", 2)[0])
	if term == "" {
		return "", domain.Wrap(domain.ErrMissingRequiredField, fmt.Errorf("show name is empty"))
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("media", "podcast")
	q.Set("limit", fmt.Sprint(directoryResultLimit))

	body, err := d.client.Get(ctx, d.baseURL+"?"+q.Encode())
	if err != nil {
		return "", err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.Wrap(domain.ErrFetchFailed, fmt.Errorf("invalid directory response: %w", err))
	}

	best, bestRatio := "", 0.0
	for _, r := range resp.Results {
		if r.FeedURL == "" {
			continue
		}
		ratio := Similarity(showName, r.CollectionName)
		if ratio > directoryAcceptRatio {
			return r.FeedURL, nil
		}
		if ratio > bestRatio {
			best, bestRatio = r.FeedURL, ratio
		}
	}
	if best == "" {
		return "", domain.Wrap(domain.ErrNoFeedFound, fmt.Errorf("%q", showName))
	}
	return best, nil
}
