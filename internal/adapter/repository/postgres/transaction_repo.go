package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
)

const transactionColumns = `id, type, source_account_id, dest_account_id, beneficiary_name,
	beneficiary_iban, amount, currency, status, description, idempotency_key,
	failure_reason, created_at, updated_at`

const (
	pgErrUniqueViolation = "23505"
	idempotencyKeyIndex  = "idx_transactions_idempotency_key"
)

// TransactionRepository implements usecase.TransactionRepository over the
// append-only journal. Entries are never deleted; only their status moves.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// CreatePending inserts a new journal entry in the pending state. A keyed
// entry whose idempotency key is already present in the journal returns
// domain.ErrDuplicateIdempotencyKey; the orchestrator resolves the
// existing entry instead of surfacing the driver error.
func (r *TransactionRepository) CreatePending(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	now := time.Now().UTC()
	txn.Status = domain.TransactionStatusPending
	txn.CreatedAt = now
	txn.UpdatedAt = now

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		txn.ID,
		string(txn.Type),
		txn.SourceAccountID,
		txn.DestAccountID,
		txn.BeneficiaryName,
		txn.BeneficiaryIBAN,
		decimalToNumeric(txn.Amount),
		txn.Currency,
		string(txn.Status),
		txn.Description,
		txn.IdempotencyKey,
		txn.FailureReason,
		timeToPgTimestamptz(txn.CreatedAt),
		timeToPgTimestamptz(txn.UpdatedAt),
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == idempotencyKeyIndex {
		return domain.ErrDuplicateIdempotencyKey
	}

	return err
}

// Transition moves a journal entry between states. The from set guards
// the update the way the balance guard protects ApplyDelta: if another
// transaction moved the entry first, zero rows match and the caller gets
// domain.ErrInvalidTransition.
func (r *TransactionRepository) Transition(ctx context.Context, tx usecase.Transaction, id string, from []domain.TransactionStatus, to domain.TransactionStatus, reason *string) error {
	pgxTx := tx.(*Tx).PgxTx()

	fromStates := make([]string, 0, len(from))
	for _, f := range from {
		fromStates = append(fromStates, string(f))
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE transactions
		SET status = $2, failure_reason = COALESCE($3, failure_reason), updated_at = now()
		WHERE id = $1 AND status = ANY($4)`,
		id, string(to), reason, fromStates)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := pgxTx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}

		if !exists {
			return domain.ErrTransactionNotFound
		}

		return domain.ErrInvalidTransition
	}

	return nil
}

// GetByID retrieves a journal entry by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1`, id)

	return scanTransaction(row)
}

// GetByIdempotencyKey retrieves the journal entry carrying a key. The
// partial unique index guarantees at most one.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE idempotency_key = $1`, key)

	return scanTransaction(row)
}

// ListByAccount lists entries touching an account, most recent first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE source_account_id = $1 OR dest_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn       domain.Transaction
		txnType   string
		amount    pgtype.Numeric
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID,
		&txnType,
		&txn.SourceAccountID,
		&txn.DestAccountID,
		&txn.BeneficiaryName,
		&txn.BeneficiaryIBAN,
		&amount,
		&txn.Currency,
		&status,
		&txn.Description,
		&txn.IdempotencyKey,
		&txn.FailureReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	txn.Type = domain.TransactionType(txnType)
	txn.Amount = numericToDecimal(amount)
	txn.Status = domain.TransactionStatus(status)
	txn.CreatedAt = createdAt.Time
	txn.UpdatedAt = updatedAt.Time

	return &txn, nil
}
