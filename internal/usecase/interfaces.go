package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborbank/bankcore/internal/domain"
)

// AccountRepository defines data access for accounts. ApplyDelta is the
// only balance mutation primitive and must run inside a Transaction.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
	// GetByIDsForUpdate locks the given accounts for the duration of tx.
	// Callers must pass ids in sorted order to keep lock acquisition in a
	// fixed total order across concurrent movements.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// ApplyDelta applies a signed amount to the balance, re-checking
	// non-negativity and account status at mutation time. Returns the new
	// balance.
	ApplyDelta(ctx context.Context, tx Transaction, id string, delta decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository defines data access for the transaction journal.
type TransactionRepository interface {
	CreatePending(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	// Transition moves a journal entry to the next status, but only when
	// its current status is one of from. A violation returns
	// domain.ErrInvalidTransition and signals a concurrency-control defect.
	Transition(ctx context.Context, tx Transaction, id string, from []domain.TransactionStatus, to domain.TransactionStatus, reason *string) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIdempotencyKey resolves the journal entry carrying a key when
	// the unique keyed-entry index rejects a duplicate insert.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

// IdempotencyRepository maps caller-supplied idempotency keys to the
// transaction created by the first request bearing the key.
type IdempotencyRepository interface {
	// RecordIfAbsent inserts the key atomically with respect to concurrent
	// identical requests. When the key already exists the stored
	// transaction id is returned and inserted is false.
	RecordIfAbsent(ctx context.Context, tx Transaction, key, transactionID string) (existingID string, inserted bool, err error)
	// Get returns the transaction id recorded for key, if any.
	Get(ctx context.Context, key string) (transactionID string, found bool, err error)
}

// BeneficiaryRepository defines data access for saved payees.
type BeneficiaryRepository interface {
	Create(ctx context.Context, beneficiary *domain.Beneficiary) error
	GetByID(ctx context.Context, id, userID string) (*domain.Beneficiary, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Beneficiary, error)
	Delete(ctx context.Context, id, userID string) error
}

// Transaction represents a database transaction: the atomic unit inside
// which balance deltas and journal writes commit or abort together.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient backend conflicts
// (serialization failures, deadlocks) with bounded backoff.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines display-purpose caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles transport-level idempotent response replay.
// The IdempotencyRepository above is the correctness layer; this one only
// short-circuits retried HTTP requests.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
