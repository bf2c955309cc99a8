package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/supabase-community/supabase-go"
)

const (
	documentsTable = "provider_documents"
	knowledgeTable = "provider_knowledge"
)

// SupabaseStore writes through the Supabase REST API with a service role key,
// for deployments without direct database access.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(url, serviceRoleKey string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

type documentRow struct {
	ID            string  `json:"id"`
	ProviderID    int64   `json:"provider_id"`
	Title         string  `json:"title"`
	SourceURL     string  `json:"source_url"`
	MediaType     string  `json:"media_type"`
	CoverImageURL *string `json:"cover_image_url"`
}

type knowledgeRow struct {
	ProviderID int64                `json:"provider_id"`
	DocumentID string               `json:"document_id"`
	ChunkIndex int                  `json:"chunk_index"`
	Content    string               `json:"content"`
	Embedding  []float32            `json:"embedding"`
	Metadata   domain.ChunkMetadata `json:"metadata"`
}

func (s *SupabaseStore) CreateDocument(ctx context.Context, d *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := documentRow{
		ID:            d.ID,
		ProviderID:    d.ProviderID,
		Title:         d.Title,
		SourceURL:     d.SourceURL,
		MediaType:     string(d.MediaType),
		CoverImageURL: nullableString(d.CoverImageURL),
	}
	_, _, err := s.client.From(documentsTable).Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		if isDuplicate(err) {
			return domain.Wrap(domain.ErrDocumentExists, err)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *SupabaseStore) ExistsBySourceURL(ctx context.Context, providerID int64, sourceURL string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := s.client.From(documentsTable).
		Select("id", "", false).
		Eq("provider_id", strconv.FormatInt(providerID, 10)).
		Eq("source_url", sourceURL).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return false, fmt.Errorf("query documents: %w", err)
	}
	return len(rows) > 0, nil
}

// InsertChunks sends the batch as one request, which PostgREST applies as a
// single statement. Chunk ids are left to the column default.
func (s *SupabaseStore) InsertChunks(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]knowledgeRow, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, knowledgeRow{
			ProviderID: c.ProviderID,
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			Embedding:  c.Embedding,
			Metadata:   c.Metadata,
		})
	}
	if _, _, err := s.client.From(knowledgeTable).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, uniqueViolation) || strings.Contains(msg, "duplicate key")
}
