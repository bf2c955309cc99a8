package repository

import (
	"context"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the document store backed by a direct database connection.
// Each InsertChunks call is one transaction, so a failed batch leaves no rows.
type PostgresStore struct {
	documents *DocumentRepository
	tx        *TxRunner
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		documents: NewDocumentRepository(pool),
		tx:        NewTxRunner(pool),
	}
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	return s.documents.Create(ctx, doc)
}

func (s *PostgresStore) ExistsBySourceURL(ctx context.Context, providerID int64, sourceURL string) (bool, error) {
	return s.documents.ExistsBySourceURL(ctx, providerID, sourceURL)
}

func (s *PostgresStore) InsertChunks(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	return s.tx.WithTx(ctx, func(repos *TxRepositories) error {
		return repos.Chunks().InsertChunks(ctx, chunks)
	})
}
