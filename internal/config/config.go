package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
)

// Config is read from DOCSEEDER_* variables. Each tag also resolves without the
// prefix, so SUPABASE_URL and OPENAI_API_KEY from an existing .env work as-is.
type Config struct {
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	Store       string `envconfig:"STORE" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	SupabaseURL string `envconfig:"SUPABASE_URL"`
	SupabaseKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`

	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY" required:"true"`
	EmbeddingModel        string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions   int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	TranscriptionModel    string `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`
	TranscriptionMaxBytes int64  `envconfig:"TRANSCRIPTION_MAX_BYTES" default:"26214400"`

	// Segment aggregation closes a chunk once its text exceeds this many characters.
	ChunkThreshold   int `envconfig:"CHUNK_THRESHOLD" default:"1000"`
	TextChunkSize    int `envconfig:"TEXT_CHUNK_SIZE" default:"1024"`
	TextChunkOverlap int `envconfig:"TEXT_CHUNK_OVERLAP" default:"50"`

	InsertBatchSize  int           `envconfig:"INSERT_BATCH_SIZE" default:"20"`
	InsertMaxRetries int           `envconfig:"INSERT_MAX_RETRIES" default:"3"`
	InsertRetryDelay time.Duration `envconfig:"INSERT_RETRY_DELAY" default:"1s"`

	CrawlDelay   time.Duration `envconfig:"CRAWL_DELAY" default:"2s"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	YtDlpPath  string `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	FFmpegPath string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	WorkDir    string `envconfig:"WORK_DIR"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docseeder-sources"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCSEEDER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StorePostgres)
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the %s store", StoreSupabase)
		}
	default:
		return fmt.Errorf("unknown STORE %q (expected %s or %s)", c.Store, StorePostgres, StoreSupabase)
	}

	if c.ChunkThreshold <= 0 {
		return fmt.Errorf("CHUNK_THRESHOLD must be positive, got %d", c.ChunkThreshold)
	}
	if c.InsertBatchSize <= 0 {
		return fmt.Errorf("INSERT_BATCH_SIZE must be positive, got %d", c.InsertBatchSize)
	}
	if c.InsertMaxRetries < 1 {
		return fmt.Errorf("INSERT_MAX_RETRIES must be at least 1, got %d", c.InsertMaxRetries)
	}

	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
