package podcast

import (
	"context"
	"log"

	"github.com/cloo-solutions/docseeder/internal/domain"
)

// Fetcher is the HTTP access the resolver needs.
type Fetcher interface {
	Getter
	URLResolver
}

// Resolver turns an episode share link into a downloadable episode.
type Resolver struct {
	fetcher   Fetcher
	directory *Directory
}

// NewResolver creates a Resolver. directory may be nil to use the public iTunes API.
func NewResolver(fetcher Fetcher, directory *Directory) *Resolver {
	if directory == nil {
		directory = NewDirectory(fetcher, "")
	}
	return &Resolver{fetcher: fetcher, directory: directory}
}

// Resolve canonicalizes the link, reads the page, finds the show feed and
// matches the episode in it.
func (r *Resolver) Resolve(ctx context.Context, episodeURL string) (*domain.Episode, error) {
	canonical := CanonicalURL(ctx, r.fetcher, episodeURL)
	log.Printf("podcast: canonical url %s", canonical)

	html, err := r.fetcher.Get(ctx, canonical)
	if err != nil {
		return nil, domain.Wrap(domain.ErrMetadataNotFound, err)
	}
	page, err := ParseEpisodePage(string(html))
	if err != nil {
		return nil, err
	}
	log.Printf("podcast: episode %q of show %q", page.Title, page.ShowName)

	feedURL, err := r.directory.FindFeed(ctx, page.ShowName)
	if err != nil {
		return nil, err
	}

	feedXML, err := r.fetcher.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	match, err := MatchEpisode(string(feedXML), page.Title)
	if err != nil {
		return nil, err
	}

	image := page.ImageURL
	if image == "" {
		image = match.ImageURL
	}

	return &domain.Episode{
		SourceURL: canonical,
		ShowName:  page.ShowName,
		Title:     match.Title,
		FeedURL:   feedURL,
		AudioURL:  match.AudioURL,
		ImageURL:  image,
	}, nil
}
