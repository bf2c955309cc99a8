package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/extract"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
)

// DefaultMaxArticles bounds how many feed entries one newsletter run reads.
const DefaultMaxArticles = 20

// FeedReport counts the outcome of each feed entry.
type FeedReport struct {
	Entries int
	Stored  int
	Skipped int
	Failed  int
}

// IngestSubstack reads a newsletter RSS feed and stores each article as a
// document. Paywalled or short entries are skipped.
func (s *IngestService) IngestSubstack(ctx context.Context, newsletterURL string, providerID int64, maxArticles int) (*FeedReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestSubstack", telemetry.SpanAttributes{
		ProviderID: providerID,
		Source:     newsletterURL,
		Operation:  "substack",
	})
	defer span.End()

	if s.fetcher == nil {
		return nil, fmt.Errorf("substack ingestion requires a fetcher")
	}
	if providerID <= 0 {
		return nil, domain.ErrInvalidProviderID
	}
	if maxArticles <= 0 {
		maxArticles = DefaultMaxArticles
	}

	feedURL := extract.FeedURL(newsletterURL)
	log.Printf("substack: fetching feed %s", feedURL)
	body, err := s.fetcher.Get(ctx, feedURL)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	articles, err := extract.ParseArticles(string(body), maxArticles)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	log.Printf("substack: processing %d articles", len(articles))

	report := &FeedReport{Entries: len(articles)}
	for _, article := range articles {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		_, err := s.IngestText(ctx, TextDocument{
			ProviderID:    providerID,
			SourceURL:     article.Link,
			Title:         article.Title,
			MediaType:     domain.MediaTypeDocument,
			CoverImageURL: article.CoverImageURL,
			Text:          extract.CleanArticleHTML(article.HTML),
			MinChars:      s.cfg.MinArticleChars,
			Metadata:      domain.ChunkMetadata{Source: article.Link, Author: article.Author},
		})
		switch {
		case errors.Is(err, domain.ErrContentTooShort):
			log.Printf("substack: skipping %q (content too short or paywalled)", article.Title)
			report.Skipped++
		case errors.Is(err, domain.ErrDocumentExists):
			log.Printf("substack: skipping %q (already ingested)", article.Title)
			report.Skipped++
		case err != nil:
			log.Printf("substack: %q failed: %v", article.Title, err)
			report.Failed++
		default:
			log.Printf("substack: stored %q", article.Title)
			report.Stored++
		}
	}

	return report, nil
}
