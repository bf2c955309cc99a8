package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/docseeder/internal/config"
	"github.com/cloo-solutions/docseeder/internal/database"
	"github.com/cloo-solutions/docseeder/internal/fetch"
	"github.com/cloo-solutions/docseeder/internal/media"
	"github.com/cloo-solutions/docseeder/internal/openai"
	"github.com/cloo-solutions/docseeder/internal/podcast"
	"github.com/cloo-solutions/docseeder/internal/repository"
	"github.com/cloo-solutions/docseeder/internal/service"
	"github.com/cloo-solutions/docseeder/internal/storage"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
	goopenai "github.com/sashabaranov/go-openai"
)

// Pipelines is the part of service.IngestService the commands drive.
type Pipelines interface {
	IngestYouTube(ctx context.Context, videoURL string, providerID int64) (*service.IngestResult, error)
	IngestVideo(ctx context.Context, req service.VideoRequest) (*service.IngestResult, error)
	IngestPodcast(ctx context.Context, episodeURL string, providerID int64) (*service.IngestResult, error)
	IngestTranscriptFile(ctx context.Context, req service.TranscriptFileRequest) (*service.IngestResult, error)
	IngestTranscriptDir(ctx context.Context, dir string, providerID int64) (int, error)
	CrawlSite(ctx context.Context, req service.CrawlRequest) (*service.CrawlReport, error)
	IngestSubstack(ctx context.Context, newsletterURL string, providerID int64, maxArticles int) (*service.FeedReport, error)
	IngestPDF(ctx context.Context, path string, providerID int64) (*service.IngestResult, error)
}

var _ Pipelines = (*service.IngestService)(nil)

// Runtime is what a command needs once configuration and clients are built.
type Runtime struct {
	Pipelines  Pipelines
	CrawlDelay time.Duration
	closers    []func()
}

// Close releases clients in reverse order of creation.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Opener builds the Runtime for one command invocation.
type Opener func(ctx context.Context) (*Runtime, error)

// Open loads configuration from the environment and builds every client.
func Open(ctx context.Context) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewRuntime(ctx, cfg)
}

// NewRuntime is the composition root: it wires config into providers, store,
// archive and the ingestion service.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{CrawlDelay: cfg.CrawlDelay}

	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
	} else {
		rt.closers = append(rt.closers, shutdownTelemetry)
	}

	store, err := openStore(ctx, cfg, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var archiver service.SourceArchiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	fetcher := fetch.NewClient(fetch.Config{Timeout: cfg.FetchTimeout})
	ytdlp := media.NewDownloader(cfg.YtDlpPath)

	deps := service.Dependencies{
		Store: store,
		Embedder: openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		}),
		Transcriber: openai.NewTranscriber(openai.TranscriberConfig{
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.TranscriptionModel,
			MaxBytes: cfg.TranscriptionMaxBytes,
		}),
		Downloader: ytdlp,
		Captions:   ytdlp,
		Compressor: media.NewCompressor(cfg.FFmpegPath),
		Episodes:   podcast.NewResolver(fetcher, nil),
		Fetcher:    fetcher,
		Archiver:   archiver,
	}

	rt.Pipelines = service.NewIngestService(deps, ingestConfig(cfg))
	return rt, nil
}

func openStore(ctx context.Context, cfg *config.Config, rt *Runtime) (service.DocumentStore, error) {
	switch cfg.Store {
	case config.StoreSupabase:
		store, err := repository.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, err
		}
		log.Println("using supabase store")
		return store, nil
	default:
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		log.Println("connected to database")
		return repository.NewPostgresStore(pool), nil
	}
}

func ingestConfig(cfg *config.Config) service.IngestConfig {
	ic := service.DefaultIngestConfig()
	ic.Segments.Threshold = cfg.ChunkThreshold
	if cfg.TextChunkSize > 0 {
		ic.Text.MaxChars = cfg.TextChunkSize
	}
	if cfg.TextChunkOverlap >= 0 {
		ic.Text.Overlap = cfg.TextChunkOverlap
	}
	ic.Batch = service.BatchWriterConfig{
		BatchSize:   cfg.InsertBatchSize,
		MaxAttempts: cfg.InsertMaxRetries,
		RetryDelay:  cfg.InsertRetryDelay,
	}
	ic.WorkDir = cfg.WorkDir
	ic.MaxAudioBytes = cfg.TranscriptionMaxBytes
	return ic
}
