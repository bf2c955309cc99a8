package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkInput is a piece of document text with the metadata it will be stored with.
type ChunkInput struct {
	Text     string
	Metadata domain.ChunkMetadata
}

// EmbeddingService turns chunk text into embedded knowledge rows
type EmbeddingService struct {
	client EmbeddingClient
}

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(client EmbeddingClient) *EmbeddingService {
	return &EmbeddingService{client: client}
}

// EmbedChunks embeds each input in order, one request per chunk, and returns
// rows linked to doc. The first failure aborts the whole document.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, doc *domain.Document, inputs []ChunkInput) ([]domain.KnowledgeChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.EmbedChunks", telemetry.SpanAttributes{
		ProviderID: doc.ProviderID,
		DocumentID: doc.ID,
		Operation:  "embed",
	})
	defer span.End()
	span.SetData("chunks", len(inputs))

	rows := make([]domain.KnowledgeChunk, 0, len(inputs))
	for i, in := range inputs {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			continue
		}

		embedding, err := s.client.GenerateEmbedding(ctx, text)
		if err != nil {
			span.SetError(err)
			return nil, domain.Wrap(domain.ErrEmbeddingFailed, fmt.Errorf("chunk %d: %w", i, err))
		}

		rows = append(rows, domain.KnowledgeChunk{
			ProviderID: doc.ProviderID,
			DocumentID: doc.ID,
			ChunkIndex: len(rows),
			Content:    text,
			Embedding:  embedding,
			Metadata:   in.Metadata,
		})
	}

	return rows, nil
}
