package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner provides transactional repositories using a pgx pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// TxRepositories exposes the repositories bound to one transaction.
type TxRepositories struct {
	tx pgx.Tx
}

func (r *TxRepositories) Documents() *DocumentRepository {
	return NewDocumentRepositoryWithTx(r.tx)
}

func (r *TxRepositories) Chunks() *KnowledgeChunkRepository {
	return NewKnowledgeChunkRepositoryWithTx(r.tx)
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos *TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(&TxRepositories{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
