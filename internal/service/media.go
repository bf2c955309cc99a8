package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
)

// VideoRequest asks for one video page to be downloaded, transcribed and stored.
type VideoRequest struct {
	URL        string
	ProviderID int64
	// Title replaces the title reported by the video site when set.
	Title   string
	Options domain.DownloadOptions
}

// IngestVideo handles YouTube and Vimeo pages: the audio track is downloaded,
// transcribed and stored as a video document.
func (s *IngestService) IngestVideo(ctx context.Context, req VideoRequest) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestVideo", telemetry.SpanAttributes{
		ProviderID: req.ProviderID,
		Source:     req.URL,
		Operation:  "video",
	})
	defer span.End()

	if s.downloader == nil || s.transcriber == nil {
		return nil, fmt.Errorf("video ingestion requires a downloader and a transcriber")
	}
	if err := s.ensureNew(ctx, req.ProviderID, req.URL); err != nil {
		return nil, err
	}

	dir, cleanup, err := s.newWorkDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	log.Printf("ingest: downloading audio from %s", req.URL)
	file, err := s.downloader.Download(ctx, req.URL, dir, req.Options)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	title := file.Title
	if req.Title != "" {
		title = req.Title
	}
	if title == "" {
		title = "Unknown Video"
	}

	transcript, audioPath, err := s.transcribe(ctx, file.Path, dir, false)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return s.IngestTimedMedia(ctx, TimedMedia{
		ProviderID:    req.ProviderID,
		SourceURL:     req.URL,
		Title:         title,
		MediaType:     domain.MediaTypeVideo,
		CoverImageURL: file.Thumbnail,
		VideoID:       file.ID,
		Segments:      transcript.Segments,
		ArchivePath:   audioPath,
	})
}

// IngestPodcast resolves a podcast share link to its RSS audio file, then
// transcribes and stores it as an audio document under the canonical URL.
func (s *IngestService) IngestPodcast(ctx context.Context, episodeURL string, providerID int64) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestPodcast", telemetry.SpanAttributes{
		ProviderID: providerID,
		Source:     episodeURL,
		Operation:  "podcast",
	})
	defer span.End()

	if s.episodes == nil || s.fetcher == nil || s.transcriber == nil {
		return nil, fmt.Errorf("podcast ingestion requires an episode resolver, a fetcher and a transcriber")
	}
	if providerID <= 0 {
		return nil, domain.ErrInvalidProviderID
	}

	episode, err := s.episodes.Resolve(ctx, episodeURL)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	log.Printf("ingest: resolved episode %q from %q", episode.Title, episode.ShowName)

	if err := s.ensureNew(ctx, providerID, episode.SourceURL); err != nil {
		return nil, err
	}

	dir, cleanup, err := s.newWorkDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rawPath := filepath.Join(dir, "episode.mp3")
	size, err := s.fetcher.DownloadFile(ctx, episode.AudioURL, rawPath)
	if err != nil {
		span.SetError(err)
		return nil, domain.Wrap(domain.ErrDownloadFailed, err)
	}
	log.Printf("ingest: downloaded %.1f MB of audio", float64(size)/(1024*1024))

	transcript, audioPath, err := s.transcribe(ctx, rawPath, dir, true)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return s.IngestTimedMedia(ctx, TimedMedia{
		ProviderID:    providerID,
		SourceURL:     episode.SourceURL,
		Title:         episode.Title,
		MediaType:     domain.MediaTypeAudio,
		CoverImageURL: episode.ImageURL,
		Segments:      transcript.Segments,
		ArchivePath:   audioPath,
	})
}

// transcribe compresses the audio first when forced or when it is above the
// transcription size limit. It returns the path that was actually transcribed.
func (s *IngestService) transcribe(ctx context.Context, path, dir string, forceCompress bool) (*domain.Transcript, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", domain.Wrap(domain.ErrSourceNotFound, err)
	}

	if s.compressor != nil && (forceCompress || info.Size() > s.cfg.MaxAudioBytes) {
		out := filepath.Join(dir, "compressed.mp3")
		log.Printf("ingest: compressing %.1f MB audio file", float64(info.Size())/(1024*1024))
		if err := s.compressor.Compress(ctx, path, out); err != nil {
			return nil, "", err
		}
		path = out
	}

	transcript, err := s.transcriber.Transcribe(ctx, path)
	if err != nil {
		return nil, "", err
	}
	log.Printf("ingest: transcript has %d segments", len(transcript.Segments))
	return transcript, path, nil
}

// TranscriptFileRequest stores a transcript that was produced elsewhere.
type TranscriptFileRequest struct {
	Path       string
	ProviderID int64
	// SourceURL defaults to a file:// URL of Path.
	SourceURL string
	// Title defaults to the file name without its .mp3.json or .json suffix.
	Title string
}

// IngestTranscriptFile loads a Whisper verbose_json file and stores it as a video document.
func (s *IngestService) IngestTranscriptFile(ctx context.Context, req TranscriptFileRequest) (*IngestResult, error) {
	transcript, err := LoadTranscriptFile(req.Path)
	if err != nil {
		return nil, err
	}

	sourceURL := req.SourceURL
	if sourceURL == "" {
		abs, err := filepath.Abs(req.Path)
		if err != nil {
			return nil, err
		}
		sourceURL = "file://" + filepath.ToSlash(abs)
	}
	title := req.Title
	if title == "" {
		title = TranscriptTitle(req.Path)
	}

	if err := s.ensureNew(ctx, req.ProviderID, sourceURL); err != nil {
		return nil, err
	}

	return s.IngestTimedMedia(ctx, TimedMedia{
		ProviderID: req.ProviderID,
		SourceURL:  sourceURL,
		Title:      title,
		MediaType:  domain.MediaTypeVideo,
		Segments:   transcript.Segments,
	})
}

// IngestTranscriptDir ingests every .json file in dir. Files that fail are
// logged and skipped; the number of stored documents is returned.
func (s *IngestService) IngestTranscriptDir(ctx context.Context, dir string, providerID int64) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, domain.Wrap(domain.ErrSourceNotFound, err)
	}

	stored := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		log.Printf("ingest: processing transcript %s", entry.Name())

		_, err := s.IngestTranscriptFile(ctx, TranscriptFileRequest{Path: path, ProviderID: providerID})
		switch {
		case errors.Is(err, domain.ErrDocumentExists):
			log.Printf("ingest: %s already ingested, skipping", entry.Name())
		case err != nil:
			log.Printf("ingest: %s failed: %v", entry.Name(), err)
		default:
			stored++
		}

		if ctx.Err() != nil {
			return stored, ctx.Err()
		}
	}
	return stored, nil
}

// LoadTranscriptFile reads {"text": ..., "segments": [{start, end, text}]} JSON.
func LoadTranscriptFile(path string) (*domain.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.Wrap(domain.ErrSourceNotFound, err)
	}

	var transcript domain.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, domain.Wrap(domain.ErrMissingRequiredField, fmt.Errorf("invalid transcript %s: %w", filepath.Base(path), err))
	}

	segments := transcript.Segments[:0]
	for _, seg := range transcript.Segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		segments = append(segments, seg)
	}
	transcript.Segments = segments
	return &transcript, nil
}

// TranscriptTitle derives a document title from a transcript file name.
func TranscriptTitle(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".mp3.json")
	name = strings.TrimSuffix(name, ".json")
	return name
}
