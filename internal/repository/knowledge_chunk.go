package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeChunkRepository handles persistence of embedded chunks in provider_knowledge.
type KnowledgeChunkRepository struct {
	db dbtx
}

func NewKnowledgeChunkRepository(pool *pgxpool.Pool) *KnowledgeChunkRepository {
	return &KnowledgeChunkRepository{db: pool}
}

func NewKnowledgeChunkRepositoryWithTx(tx pgx.Tx) *KnowledgeChunkRepository {
	return &KnowledgeChunkRepository{db: tx}
}

// InsertChunks inserts the chunks in order. Run it inside a transaction to get
// all-or-nothing batches.
func (r *KnowledgeChunkRepository) InsertChunks(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	for _, c := range chunks {
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for chunk %d: %w", c.ChunkIndex, err)
		}
		_, err = r.db.Exec(ctx,
			`INSERT INTO provider_knowledge
				(id, provider_id, document_id, chunk_index, content, embedding, metadata)
			 VALUES
				(COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)`,
			nullableString(c.ID),
			c.ProviderID,
			c.DocumentID,
			c.ChunkIndex,
			c.Content,
			pgvector.NewVector(c.Embedding),
			metadata,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByDocument returns a document's chunks ordered by index.
func (r *KnowledgeChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.KnowledgeChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, provider_id, document_id, chunk_index, content, embedding, metadata
		 FROM provider_knowledge WHERE document_id = $1 ORDER BY chunk_index`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.KnowledgeChunk
	for rows.Next() {
		var c domain.KnowledgeChunk
		var embedding pgvector.Vector
		var metadata []byte
		if err := rows.Scan(&c.ID, &c.ProviderID, &c.DocumentID, &c.ChunkIndex, &c.Content, &embedding, &metadata); err != nil {
			return nil, err
		}
		c.Embedding = embedding.Slice()
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for chunk %d: %w", c.ChunkIndex, err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
