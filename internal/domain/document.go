package domain

import (
	"fmt"
	"time"
)

// MediaType classifies the source a document was ingested from.
type MediaType string

const (
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeWebPage  MediaType = "web_page"
	MediaTypeDocument MediaType = "document"
	MediaTypePDF      MediaType = "pdf"
	// MediaTypeYouTube marks videos stored from their captions rather than a transcription.
	MediaTypeYouTube MediaType = "youtube"
)

// Document is the parent record of an ingested source. One row per source URL.
type Document struct {
	ID            string
	ProviderID    int64
	Title         string
	SourceURL     string
	MediaType     MediaType
	CoverImageURL string
	CreatedAt     time.Time
}

// NewDocument creates a new Document instance
func NewDocument(providerID int64, title, sourceURL string, mediaType MediaType) *Document {
	return &Document{
		ProviderID: providerID,
		Title:      title,
		SourceURL:  sourceURL,
		MediaType:  mediaType,
		CreatedAt:  time.Now().UTC(),
	}
}

// ValidateDocument validates a Document before it is stored
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ProviderID <= 0 {
		return ErrInvalidProviderID
	}

	if d.Title == "" {
		return Wrap(ErrMissingRequiredField, fmt.Errorf("document Title is required"))
	}

	if d.SourceURL == "" {
		return Wrap(ErrMissingRequiredField, fmt.Errorf("document SourceURL is required"))
	}

	if !isValidMediaType(d.MediaType) {
		return Wrap(ErrInvalidMediaType, fmt.Errorf("%q", d.MediaType))
	}

	return nil
}

func isValidMediaType(t MediaType) bool {
	switch t {
	case MediaTypeVideo, MediaTypeAudio, MediaTypeWebPage, MediaTypeDocument, MediaTypePDF, MediaTypeYouTube:
		return true
	}
	return false
}
