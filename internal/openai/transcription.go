package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultTranscriptionModel = openai.Whisper1
	// DefaultMaxAudioBytes is the upload limit of the transcription endpoint.
	DefaultMaxAudioBytes int64 = 25 * 1024 * 1024
)

// TranscriptionAPI is the raw transcription call, one file per request.
type TranscriptionAPI interface {
	CreateTranscription(ctx context.Context, audioPath string) (openai.AudioResponse, error)
}

type WhisperAdapter struct {
	client *openai.Client
	model  string
}

func NewWhisperAdapter(client *openai.Client, model string) *WhisperAdapter {
	if model == "" {
		model = DefaultTranscriptionModel
	}
	return &WhisperAdapter{client: client, model: model}
}

// CreateTranscription requests verbose JSON so the response carries segment timestamps.
func (a *WhisperAdapter) CreateTranscription(ctx context.Context, audioPath string) (openai.AudioResponse, error) {
	return a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:                  a.model,
		FilePath:               audioPath,
		Format:                 openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{openai.TranscriptionTimestampGranularitySegment},
	})
}

type TranscriberConfig struct {
	APIKey   string
	Model    string
	MaxBytes int64
}

// Transcriber turns an audio file into a domain.Transcript.
type Transcriber struct {
	api      TranscriptionAPI
	maxBytes int64
}

func NewTranscriber(cfg TranscriberConfig) *Transcriber {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAudioBytes
	}
	return &Transcriber{
		api:      NewWhisperAdapter(openai.NewClient(cfg.APIKey), cfg.Model),
		maxBytes: maxBytes,
	}
}

// Transcribe rejects files over the size limit before uploading them.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, domain.Wrap(domain.ErrSourceNotFound, err)
	}
	if info.Size() > t.maxBytes {
		return nil, domain.Wrap(domain.ErrAudioTooLarge,
			fmt.Errorf("%s is %.2f MB, limit is %.2f MB", audioPath, megabytes(info.Size()), megabytes(t.maxBytes)))
	}

	resp, err := t.api.CreateTranscription(ctx, audioPath)
	if err != nil {
		return nil, domain.Wrap(domain.ErrTranscriptionFailed, err)
	}

	return toTranscript(resp), nil
}

// toTranscript maps the SDK response onto domain segments. Segments with no
// text after trimming carry nothing to embed and are dropped.
func toTranscript(resp openai.AudioResponse) *domain.Transcript {
	out := &domain.Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]domain.Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		out.Segments = append(out.Segments, domain.Segment{Start: s.Start, End: s.End, Text: text})
	}
	return out
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
