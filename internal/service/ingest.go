package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
	"github.com/google/uuid"
)

// DocumentStore persists parent documents and their knowledge rows
type DocumentStore interface {
	ChunkInserter
	ExistsBySourceURL(ctx context.Context, providerID int64, sourceURL string) (bool, error)
	CreateDocument(ctx context.Context, doc *domain.Document) error
}

// Transcriber turns an audio file into time-stamped segments
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error)
}

// MediaDownloader fetches the audio track of a video page into dir
type MediaDownloader interface {
	Download(ctx context.Context, sourceURL, dir string, opts domain.DownloadOptions) (*domain.MediaFile, error)
}

// AudioCompressor re-encodes audio small enough for transcription
type AudioCompressor interface {
	Compress(ctx context.Context, inputPath, outputPath string) error
}

// CaptionFetcher writes a video's subtitle track into dir and returns its text
type CaptionFetcher interface {
	Captions(ctx context.Context, sourceURL, dir string, opts domain.DownloadOptions) (*domain.Captions, error)
}

// EpisodeResolver maps a podcast share link to an episode with a direct audio URL
type EpisodeResolver interface {
	Resolve(ctx context.Context, episodeURL string) (*domain.Episode, error)
}

// PageFetcher retrieves remote documents over HTTP
type PageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	DownloadFile(ctx context.Context, url, path string) (int64, error)
}

// SourceArchiver keeps a copy of the original source file
type SourceArchiver interface {
	Archive(ctx context.Context, key, path string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

var _ UUIDGenerator = (*DefaultUUIDGenerator)(nil)

// IngestConfig holds tunables shared by all pipelines.
type IngestConfig struct {
	Segments SegmentChunkConfig
	Text     TextChunkConfig
	Batch    BatchWriterConfig
	WorkDir  string
	// Audio above this size is compressed before transcription.
	MaxAudioBytes int64
	// Pages, articles and caption tracks with less text than this are skipped.
	MinPageChars    int
	MinArticleChars int
	MinCaptionChars int
}

func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Segments:        DefaultSegmentChunkConfig(),
		Text:            DefaultTextChunkConfig(),
		Batch:           DefaultBatchWriterConfig(),
		MaxAudioBytes:   25 * 1024 * 1024,
		MinPageChars:    50,
		MinArticleChars: 200,
		MinCaptionChars: 50,
	}
}

// Dependencies are the collaborators an IngestService may use. Only Store and
// Embedder are required; pipelines check for the rest when they run.
type Dependencies struct {
	Store       DocumentStore
	Embedder    EmbeddingClient
	Transcriber Transcriber
	Downloader  MediaDownloader
	Captions    CaptionFetcher
	Compressor  AudioCompressor
	Episodes    EpisodeResolver
	Fetcher     PageFetcher
	Archiver    SourceArchiver
	PDFReader   PDFReader
	UUIDGen     UUIDGenerator
}

// IngestResult describes one stored document.
type IngestResult struct {
	DocumentID string
	Title      string
	SourceURL  string
	Chunks     int
	Report     BatchReport
}

// IngestService runs the fetch, transcribe or extract, chunk, embed and persist
// pipelines. Each call handles one source end to end.
type IngestService struct {
	store       DocumentStore
	embeddings  *EmbeddingService
	writer      *BatchWriter
	transcriber Transcriber
	downloader  MediaDownloader
	captions    CaptionFetcher
	compressor  AudioCompressor
	episodes    EpisodeResolver
	fetcher     PageFetcher
	archiver    SourceArchiver
	readPDF     PDFReader
	uuidGen     UUIDGenerator
	cfg         IngestConfig
}

// NewIngestService creates a new IngestService instance
func NewIngestService(deps Dependencies, cfg IngestConfig) *IngestService {
	uuidGen := deps.UUIDGen
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	def := DefaultIngestConfig()
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = def.MaxAudioBytes
	}
	if cfg.MinPageChars <= 0 {
		cfg.MinPageChars = def.MinPageChars
	}
	if cfg.MinArticleChars <= 0 {
		cfg.MinArticleChars = def.MinArticleChars
	}
	if cfg.MinCaptionChars <= 0 {
		cfg.MinCaptionChars = def.MinCaptionChars
	}

	return &IngestService{
		store:       deps.Store,
		embeddings:  NewEmbeddingService(deps.Embedder),
		writer:      NewBatchWriter(deps.Store, cfg.Batch),
		transcriber: deps.Transcriber,
		downloader:  deps.Downloader,
		captions:    deps.Captions,
		compressor:  deps.Compressor,
		episodes:    deps.Episodes,
		fetcher:     deps.Fetcher,
		archiver:    deps.Archiver,
		readPDF:     deps.PDFReader,
		uuidGen:     uuidGen,
		cfg:         cfg,
	}
}

// TimedMedia is a transcript ready to be stored with its document metadata.
type TimedMedia struct {
	ProviderID    int64
	SourceURL     string
	Title         string
	MediaType     domain.MediaType
	CoverImageURL string
	VideoID       string
	Segments      []domain.Segment
	// ArchivePath, when set, is uploaded to the source archive after the
	// document is created.
	ArchivePath string
}

// IngestTimedMedia aggregates segments into chunks and stores them under a new
// document. Chunks keep the start and end second of the speech they cover.
func (s *IngestService) IngestTimedMedia(ctx context.Context, in TimedMedia) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestTimedMedia", telemetry.SpanAttributes{
		ProviderID: in.ProviderID,
		Source:     in.SourceURL,
		Operation:  "timed_media",
	})
	defer span.End()

	chunks := AggregateSegments(in.Segments, s.cfg.Segments)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyTranscript
	}
	log.Printf("ingest: %d segments aggregated into %d chunks", len(in.Segments), len(chunks))

	inputs := make([]ChunkInput, len(chunks))
	for i, c := range chunks {
		meta := domain.TimedMetadata(in.SourceURL, c)
		meta.VideoID = in.VideoID
		inputs[i] = ChunkInput{Text: c.Text, Metadata: meta}
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

type storeRequest struct {
	ProviderID    int64
	SourceURL     string
	Title         string
	MediaType     domain.MediaType
	CoverImageURL string
	ArchivePath   string
	Chunks        []ChunkInput
}

// storeDocument embeds every chunk, creates the parent row and writes the rows
// in batches. Nothing is persisted when embedding fails; the document is kept
// when a later batch fails.
func (s *IngestService) storeDocument(ctx context.Context, req storeRequest) (*IngestResult, error) {
	doc := domain.NewDocument(req.ProviderID, req.Title, req.SourceURL, req.MediaType)
	doc.ID = s.uuidGen.NewString()
	doc.CoverImageURL = req.CoverImageURL
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	rows, err := s.embeddings.EmbedChunks(ctx, doc, req.Chunks)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	log.Printf("ingest: created document %s (%q)", doc.ID, doc.Title)

	if req.ArchivePath != "" {
		s.archive(ctx, doc, req.ArchivePath)
	}

	report := s.writer.Write(ctx, rows)
	result := &IngestResult{
		DocumentID: doc.ID,
		Title:      doc.Title,
		SourceURL:  doc.SourceURL,
		Chunks:     len(rows),
		Report:     report,
	}
	if !report.OK() {
		return result, domain.Wrap(domain.ErrPersistenceFailed,
			fmt.Errorf("%d of %d chunks not stored", report.Failed(), report.Total))
	}

	log.Printf("ingest: stored %d chunks for document %s", report.Inserted, doc.ID)
	return result, nil
}

// ensureNew returns ErrDocumentExists when the source was already ingested for the provider.
func (s *IngestService) ensureNew(ctx context.Context, providerID int64, sourceURL string) error {
	if providerID <= 0 {
		return domain.ErrInvalidProviderID
	}
	exists, err := s.store.ExistsBySourceURL(ctx, providerID, sourceURL)
	if err != nil {
		return fmt.Errorf("failed to check for existing document: %w", err)
	}
	if exists {
		return domain.Wrap(domain.ErrDocumentExists, errors.New(sourceURL))
	}
	return nil
}

func (s *IngestService) archive(ctx context.Context, doc *domain.Document, path string) {
	if s.archiver == nil {
		return
	}
	key := ArchiveKey(doc.ProviderID, doc.ID, filepath.Base(path))
	if err := s.archiver.Archive(ctx, key, path); err != nil {
		log.Printf("ingest: archive %s failed (continuing): %v", key, err)
		return
	}
	log.Printf("ingest: archived source to %s", key)
}

// ArchiveKey is the object key for a document's original file.
func ArchiveKey(providerID int64, documentID, filename string) string {
	return fmt.Sprintf("%d/%s/%s", providerID, documentID, filename)
}

// newWorkDir creates a per-call scratch directory. The returned func removes it.
func (s *IngestService) newWorkDir() (string, func(), error) {
	dir, err := os.MkdirTemp(s.cfg.WorkDir, "docseeder-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("ingest: failed to remove work dir %s: %v", dir, err)
		}
	}, nil
}
