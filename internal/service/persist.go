package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloo-solutions/docseeder/internal/domain"
)

// ChunkInserter stores one batch of knowledge rows.
type ChunkInserter interface {
	InsertChunks(ctx context.Context, chunks []domain.KnowledgeChunk) error
}

// BatchWriterConfig controls batch size and per-batch retries.
type BatchWriterConfig struct {
	BatchSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

func DefaultBatchWriterConfig() BatchWriterConfig {
	return BatchWriterConfig{
		BatchSize:   20,
		MaxAttempts: 3,
		RetryDelay:  time.Second,
	}
}

// BatchFailure describes a batch that could not be stored after all attempts.
type BatchFailure struct {
	Index  int
	Offset int
	Size   int
	Err    error
}

// BatchReport summarizes a Write call. Rows of failed batches are not stored
// and earlier batches are not rolled back.
type BatchReport struct {
	Total         int
	Inserted      int
	FailedBatches []BatchFailure
}

// Failed returns the number of rows that were not stored.
func (r BatchReport) Failed() int {
	n := 0
	for _, f := range r.FailedBatches {
		n += f.Size
	}
	return n
}

// OK reports whether every row was stored.
func (r BatchReport) OK() bool {
	return len(r.FailedBatches) == 0
}

// BatchWriter inserts knowledge rows in fixed-size batches, retrying each batch
// with a constant backoff.
type BatchWriter struct {
	store ChunkInserter
	cfg   BatchWriterConfig
}

func NewBatchWriter(store ChunkInserter, cfg BatchWriterConfig) *BatchWriter {
	def := DefaultBatchWriterConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	return &BatchWriter{store: store, cfg: cfg}
}

// Write stores rows in order. A batch that keeps failing is reported and the
// remaining batches are still attempted.
func (w *BatchWriter) Write(ctx context.Context, rows []domain.KnowledgeChunk) BatchReport {
	report := BatchReport{Total: len(rows)}

	for index, offset := 0, 0; offset < len(rows); index, offset = index+1, offset+w.cfg.BatchSize {
		end := offset + w.cfg.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[offset:end]

		if err := ctx.Err(); err != nil {
			report.FailedBatches = append(report.FailedBatches, BatchFailure{Index: index, Offset: offset, Size: len(batch), Err: err})
			continue
		}

		if err := w.insertWithRetry(ctx, batch); err != nil {
			log.Printf("persist: batch %d (%d rows) failed: %v", index, len(batch), err)
			report.FailedBatches = append(report.FailedBatches, BatchFailure{Index: index, Offset: offset, Size: len(batch), Err: err})
			continue
		}
		report.Inserted += len(batch)
	}

	return report
}

func (w *BatchWriter) insertWithRetry(ctx context.Context, batch []domain.KnowledgeChunk) error {
	for i := range batch {
		if err := domain.ValidateKnowledgeChunk(&batch[i]); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	attempt := 0
	op := func() error {
		attempt++
		err := w.store.InsertChunks(ctx, batch)
		if err != nil && attempt < w.cfg.MaxAttempts {
			log.Printf("persist: insert attempt %d/%d failed: %v", attempt, w.cfg.MaxAttempts, err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(w.cfg.RetryDelay), uint64(w.cfg.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return domain.Wrap(domain.ErrPersistenceFailed, err)
	}
	return nil
}
