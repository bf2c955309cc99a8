package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// DocumentRepository stores provider_documents rows.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Create inserts the document. A second document for the same provider and
// source URL fails with domain.ErrDocumentExists.
func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO provider_documents (id, provider_id, title, source_url, media_type, cover_image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.ProviderID, d.Title, d.SourceURL, d.MediaType, nullableString(d.CoverImageURL), d.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Wrap(domain.ErrDocumentExists, err)
	}
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var cover *string
	err := r.db.QueryRow(ctx,
		`SELECT id, provider_id, title, source_url, media_type, cover_image_url, created_at
		 FROM provider_documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.ProviderID, &d.Title, &d.SourceURL, &d.MediaType, &cover, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if cover != nil {
		d.CoverImageURL = *cover
	}
	return &d, nil
}

func (r *DocumentRepository) ExistsBySourceURL(ctx context.Context, providerID int64, sourceURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM provider_documents WHERE provider_id = $1 AND source_url = $2)`,
		providerID, sourceURL,
	).Scan(&exists)
	return exists, err
}
