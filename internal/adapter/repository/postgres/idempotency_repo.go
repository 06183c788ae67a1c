package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborbank/bankcore/internal/usecase"
)

// IdempotencyRepository implements usecase.IdempotencyRepository over the
// durable registry table. Recording happens inside the same transaction
// as the pending journal insert and ahead of it, so racing duplicates are
// arbitrated here before either touches the journal. The registry's
// reference to the journal entry is a deferred foreign key for exactly
// that reason.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

// RecordIfAbsent claims the key for transactionID. When the key is
// already taken it reports the owning transaction instead. A concurrent
// uncommitted claim blocks here until that claim commits or aborts,
// exactly like any unique-index insert.
func (r *IdempotencyRepository) RecordIfAbsent(ctx context.Context, tx usecase.Transaction, key, transactionID string) (string, bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		INSERT INTO idempotency_keys (key, transaction_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO NOTHING`, key, transactionID)
	if err != nil {
		return "", false, err
	}

	if tag.RowsAffected() == 1 {
		return "", true, nil
	}

	var existingID string
	err = pgxTx.QueryRow(ctx, `
		SELECT transaction_id FROM idempotency_keys WHERE key = $1`, key).Scan(&existingID)
	if err != nil {
		return "", false, err
	}

	return existingID, false, nil
}

// Get looks up the transaction recorded for a key.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var transactionID string
	err := r.pool.QueryRow(ctx, `
		SELECT transaction_id FROM idempotency_keys WHERE key = $1`, key).Scan(&transactionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return transactionID, true, nil
}
