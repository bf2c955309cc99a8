package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/extract"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
	"golang.org/x/time/rate"
)

// CrawlRequest describes a same-site crawl.
type CrawlRequest struct {
	StartURL   string
	ProviderID int64
	// MaxPages stops the crawl after this many fetches. Zero means no limit.
	MaxPages int
	// Delay is the minimum time between two page fetches.
	Delay time.Duration
}

// CrawlReport counts what happened to each visited page.
type CrawlReport struct {
	Visited int
	Stored  int
	Skipped int
	Failed  int
	Chunks  int
}

// CrawlSite walks every page under StartURL breadth first and stores each page
// with enough text as a web_page document. Links are followed even from pages
// that were skipped. Per-page failures are logged and do not stop the crawl.
func (s *IngestService) CrawlSite(ctx context.Context, req CrawlRequest) (*CrawlReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.CrawlSite", telemetry.SpanAttributes{
		ProviderID: req.ProviderID,
		Source:     req.StartURL,
		Operation:  "site",
	})
	defer span.End()

	if s.fetcher == nil {
		return nil, fmt.Errorf("site crawl requires a fetcher")
	}
	if req.ProviderID <= 0 {
		return nil, domain.ErrInvalidProviderID
	}

	base := extract.NormalizeURL(req.StartURL)
	if base == "" {
		return nil, domain.Wrap(domain.ErrMissingRequiredField, fmt.Errorf("start url is required"))
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if req.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(req.Delay), 1)
	}

	report := &CrawlReport{}
	visited := map[string]bool{base: true}
	queue := []string{base}

	for len(queue) > 0 {
		if req.MaxPages > 0 && report.Visited >= req.MaxPages {
			log.Printf("crawl: reached page limit (%d), %d pages left in queue", req.MaxPages, len(queue))
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}

		pageURL := queue[0]
		queue = queue[1:]
		report.Visited++
		log.Printf("crawl: [%d] %s", report.Visited, pageURL)

		links, err := s.ingestPage(ctx, base, pageURL, req.ProviderID, report)
		if err != nil && ctx.Err() != nil {
			return report, ctx.Err()
		}

		for _, link := range links {
			if visited[link] {
				continue
			}
			visited[link] = true
			queue = append(queue, link)
		}
	}

	span.SetData("visited", report.Visited)
	span.SetData("stored", report.Stored)
	log.Printf("crawl: done, visited %d pages, stored %d, skipped %d, failed %d", report.Visited, report.Stored, report.Skipped, report.Failed)
	return report, nil
}

// ingestPage fetches and stores one page and returns the links found on it.
func (s *IngestService) ingestPage(ctx context.Context, base, pageURL string, providerID int64, report *CrawlReport) ([]string, error) {
	body, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		log.Printf("crawl: fetch %s failed: %v", pageURL, err)
		report.Failed++
		return nil, err
	}
	html := string(body)
	links := extract.InternalLinks(base, pageURL, html)

	result, err := s.IngestText(ctx, TextDocument{
		ProviderID:    providerID,
		SourceURL:     pageURL,
		Title:         extract.Title(html, pageURL),
		MediaType:     domain.MediaTypeWebPage,
		CoverImageURL: extract.MetaContent(html, "og:image"),
		Text:          extract.MainText(html, pageURL),
		MinChars:      s.cfg.MinPageChars,
	})
	switch {
	case errors.Is(err, domain.ErrContentTooShort):
		log.Printf("crawl: skipping %s, not enough text", pageURL)
		report.Skipped++
	case errors.Is(err, domain.ErrDocumentExists):
		log.Printf("crawl: skipping %s, already ingested", pageURL)
		report.Skipped++
	case err != nil:
		log.Printf("crawl: ingest %s failed: %v", pageURL, err)
		report.Failed++
		return links, err
	default:
		report.Stored++
		report.Chunks += result.Chunks
	}
	return links, nil
}
