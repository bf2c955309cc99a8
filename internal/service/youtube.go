package service

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
)

var youTubeID = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// YouTubeVideoID returns the 11 character id of a watch, share or embed link,
// or "" when the URL has none.
func YouTubeVideoID(rawURL string) string {
	m := youTubeID.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// YouTubeCoverURL is the full size thumbnail YouTube serves for a video id.
func YouTubeCoverURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}

// IngestYouTube stores a video from its caption track instead of transcribing
// the audio. Chunks carry the video id but no timestamps.
func (s *IngestService) IngestYouTube(ctx context.Context, videoURL string, providerID int64) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestYouTube", telemetry.SpanAttributes{
		ProviderID: providerID,
		Source:     videoURL,
		Operation:  "youtube",
	})
	defer span.End()

	if s.captions == nil {
		return nil, fmt.Errorf("caption ingestion requires a caption fetcher")
	}
	videoID := YouTubeVideoID(videoURL)
	if videoID == "" {
		return nil, domain.Wrap(domain.ErrInvalidVideoURL, fmt.Errorf("%q", videoURL))
	}
	if err := s.ensureNew(ctx, providerID, videoURL); err != nil {
		return nil, err
	}

	dir, cleanup, err := s.newWorkDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	log.Printf("ingest: fetching captions for %s", videoID)
	captions, err := s.captions.Captions(ctx, videoURL, dir, domain.DownloadOptions{})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	title := captions.Title
	if title == "" {
		title = "YouTube Video " + videoID
	}

	return s.IngestText(ctx, TextDocument{
		ProviderID:    providerID,
		SourceURL:     videoURL,
		Title:         title,
		MediaType:     domain.MediaTypeYouTube,
		CoverImageURL: YouTubeCoverURL(videoID),
		Text:          captions.Text,
		MinChars:      s.cfg.MinCaptionChars,
		Metadata:      domain.ChunkMetadata{Source: videoURL, VideoID: videoID},
	})
}
