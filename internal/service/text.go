package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
)

// TextDocument is extracted plain text ready to be split and stored.
type TextDocument struct {
	ProviderID    int64
	SourceURL     string
	Title         string
	MediaType     domain.MediaType
	CoverImageURL string
	Text          string
	// MinChars rejects documents whose trimmed text is shorter.
	MinChars int
	// Metadata is copied onto every chunk; Source defaults to SourceURL.
	Metadata    domain.ChunkMetadata
	ArchivePath string
}

// IngestText splits text into overlapping chunks and stores them under a new document.
func (s *IngestService) IngestText(ctx context.Context, in TextDocument) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestText", telemetry.SpanAttributes{
		ProviderID: in.ProviderID,
		Source:     in.SourceURL,
		Operation:  string(in.MediaType),
	})
	defer span.End()

	text := strings.TrimSpace(in.Text)
	if n := utf8.RuneCountInString(text); n < in.MinChars {
		return nil, domain.Wrap(domain.ErrContentTooShort, fmt.Errorf("%d characters", n))
	}

	if err := s.ensureNew(ctx, in.ProviderID, in.SourceURL); err != nil {
		return nil, err
	}

	meta := in.Metadata
	if meta.Source == "" {
		meta.Source = in.SourceURL
	}

	pieces := SplitText(text, s.cfg.Text)
	inputs := make([]ChunkInput, len(pieces))
	for i, p := range pieces {
		inputs[i] = ChunkInput{Text: p, Metadata: meta}
	}

	result, err := s.storeDocument(ctx, storeRequest{
		ProviderID:    in.ProviderID,
		SourceURL:     in.SourceURL,
		Title:         in.Title,
		MediaType:     in.MediaType,
		CoverImageURL: in.CoverImageURL,
		ArchivePath:   in.ArchivePath,
		Chunks:        inputs,
	})
	if err != nil {
		span.SetError(err)
	}
	return result, err
}
