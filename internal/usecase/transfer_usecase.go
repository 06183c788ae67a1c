package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/infrastructure/metrics"
)

// TransferUseCase orchestrates money movement: it is the only component
// allowed to mutate two accounts together, and it owns the atomic unit in
// which balance deltas and journal status writes commit together.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	idemRepo    IdempotencyRepository
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	idemRepo IdempotencyRepository,
	retrier Retrier,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		idemRepo:    idemRepo,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// SendInput represents a request to pay out to an external beneficiary.
type SendInput struct {
	CallerID        string
	SourceAccountID string
	Amount          decimal.Decimal
	Currency        string
	Description     *string
	BeneficiaryName string
	BeneficiaryIBAN string
	IdempotencyKey  *string
}

// TransferInput represents a request to move money between two accounts
// held here.
type TransferInput struct {
	CallerID        string
	SourceAccountID string
	DestAccountID   string
	Amount          decimal.Decimal
	Currency        string
	Description     *string
	IdempotencyKey  *string
}

// TransactionResult is the outcome of a money-movement request.
type TransactionResult struct {
	Transaction *domain.Transaction
	// NewBalance is the source account balance after the movement. Only
	// meaningful for completed movements.
	NewBalance decimal.Decimal
	// Replayed is true when the result was served from the idempotency
	// registry instead of re-executing the movement.
	Replayed bool
}

// Send debits the source account in favour of an external beneficiary.
// Completed means "debited and recorded"; dispatch to a settlement network
// is the caller's concern.
//
// When the movement fails for a content reason (insufficient funds,
// currency mismatch, inactive account) the journal entry is recorded as
// failed and returned alongside the sentinel error, so callers see both
// the typed outcome and the audit record.
func (uc *TransferUseCase) Send(ctx context.Context, input SendInput) (*TransactionResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if err := domain.ValidateIBAN(input.BeneficiaryIBAN); err != nil {
		return nil, err
	}

	if res, err := uc.replay(ctx, input.CallerID, input.IdempotencyKey); res != nil || err != nil {
		return res, err
	}

	if err := uc.checkSource(ctx, input.CallerID, input.SourceAccountID, input.Currency); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Type:            domain.TransactionTypeSend,
		SourceAccountID: input.SourceAccountID,
		BeneficiaryName: &input.BeneficiaryName,
		BeneficiaryIBAN: &input.BeneficiaryIBAN,
		Amount:          input.Amount,
		Currency:        input.Currency,
		Status:          domain.TransactionStatusPending,
		Description:     input.Description,
		IdempotencyKey:  input.IdempotencyKey,
	}

	return uc.execute(ctx, input.CallerID, txn)
}

// Transfer moves money between two accounts held here as one atomic unit:
// either both the debit and the credit are durably visible, or neither is.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransactionResult, error) {
	if input.SourceAccountID == input.DestAccountID {
		return nil, domain.ErrSameAccount
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if res, err := uc.replay(ctx, input.CallerID, input.IdempotencyKey); res != nil || err != nil {
		return res, err
	}

	if err := uc.checkSource(ctx, input.CallerID, input.SourceAccountID, input.Currency); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Type:            domain.TransactionTypeTransfer,
		SourceAccountID: input.SourceAccountID,
		DestAccountID:   &input.DestAccountID,
		Amount:          input.Amount,
		Currency:        input.Currency,
		Status:          domain.TransactionStatusPending,
		Description:     input.Description,
		IdempotencyKey:  input.IdempotencyKey,
	}

	return uc.execute(ctx, input.CallerID, txn)
}

// Cancel cancels a pending transaction. Once processing has begun the
// movement runs to a terminal state and cannot be cancelled.
func (uc *TransferUseCase) Cancel(ctx context.Context, callerID, transactionID string) (*domain.Transaction, error) {
	txn, err := uc.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	source, err := uc.accountRepo.GetByID(ctx, txn.SourceAccountID)
	if err != nil {
		return nil, err
	}

	if source.OwnerID != callerID {
		return nil, domain.ErrNotAccountOwner
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = uc.txnRepo.Transition(ctx, tx, txn.ID,
		[]domain.TransactionStatus{domain.TransactionStatusPending},
		domain.TransactionStatusCancelled, nil)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return uc.txnRepo.GetByID(ctx, txn.ID)
}

// checkSource enforces the ownership and currency preconditions on a
// plain read before any journal entry is created. Account status and
// balance are not preconditions: they are fund-movement checks, examined
// under lock so their failures land in the journal as terminal entries.
func (uc *TransferUseCase) checkSource(ctx context.Context, callerID, accountID, currency string) error {
	source, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if source.OwnerID != callerID {
		return domain.ErrNotAccountOwner
	}

	return source.EnsureCurrency(currency)
}

// replay serves a request whose idempotency key is already recorded. A
// terminal transaction replays its stored outcome; a pending one is left
// for execute to resume; a processing one is returned as a truthful
// in-flight snapshot, since another request owns the movement.
//
// The stored transaction is only handed back to the caller who owns its
// source account. Keys are caller-supplied opaque tokens; presenting
// someone else's key must not leak their transaction or balance.
func (uc *TransferUseCase) replay(ctx context.Context, callerID string, key *string) (*TransactionResult, error) {
	if key == nil {
		return nil, nil
	}

	transactionID, found, err := uc.idemRepo.Get(ctx, *key)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	txn, err := uc.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := uc.checkReplayOwner(ctx, callerID, txn); err != nil {
		return nil, err
	}

	switch {
	case txn.Status == domain.TransactionStatusPending:
		// Claimed but never executed (crash or conflict exhaustion on a
		// previous attempt). Resume the movement under the same journal
		// entry.
		uc.metrics.MovementsReplayed.Inc()
		return uc.move(ctx, callerID, txn)
	case txn.Status == domain.TransactionStatusProcessing:
		uc.metrics.MovementsReplayed.Inc()
		return &TransactionResult{Transaction: txn, Replayed: true}, nil
	default:
		uc.metrics.MovementsReplayed.Inc()
		return uc.replayTerminal(ctx, txn)
	}
}

func (uc *TransferUseCase) replayTerminal(ctx context.Context, txn *domain.Transaction) (*TransactionResult, error) {
	result := &TransactionResult{Transaction: txn, Replayed: true}

	if txn.Status == domain.TransactionStatusCompleted {
		source, err := uc.accountRepo.GetByID(ctx, txn.SourceAccountID)
		if err != nil {
			return nil, err
		}
		result.NewBalance = source.Balance
		return result, nil
	}

	if txn.Status == domain.TransactionStatusFailed && txn.FailureReason != nil {
		return result, failureReasonError(*txn.FailureReason)
	}

	return result, nil
}

// checkReplayOwner guards replayed results the same way checkSource
// guards fresh requests.
func (uc *TransferUseCase) checkReplayOwner(ctx context.Context, callerID string, txn *domain.Transaction) error {
	source, err := uc.accountRepo.GetByID(ctx, txn.SourceAccountID)
	if err != nil {
		return err
	}

	if source.OwnerID != callerID {
		return domain.ErrNotAccountOwner
	}

	return nil
}

// execute claims the journal entry (and the idempotency key, atomically)
// and then runs the movement.
func (uc *TransferUseCase) execute(ctx context.Context, callerID string, txn *domain.Transaction) (*TransactionResult, error) {
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	claimed, raced, err := uc.claim(ctx, txn)
	if err != nil {
		return nil, err
	}

	if raced {
		// A concurrent request bearing the same key created the journal
		// entry first; serve its result.
		return uc.replayClaimed(ctx, callerID, claimed)
	}

	return uc.move(ctx, callerID, claimed)
}

// claim records the idempotency key and inserts the pending journal entry
// in the same atomic unit. The registry write comes first: it is the
// arbitration point for concurrent duplicates, so the loser blocks there
// on the winner's in-flight insert and adopts the winner's entry instead
// of colliding with the journal's unique keyed-entry index. The registry
// row references a journal entry that does not exist yet, which is why
// the foreign key is deferred to commit.
func (uc *TransferUseCase) claim(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, bool, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	if txn.IdempotencyKey != nil {
		existingID, inserted, err := uc.idemRepo.RecordIfAbsent(ctx, tx, *txn.IdempotencyKey, txn.ID)
		if err != nil {
			return nil, false, err
		}

		if !inserted {
			_ = tx.Rollback(ctx)

			existing, err := uc.txnRepo.GetByID(ctx, existingID)
			if err != nil {
				return nil, false, err
			}
			return existing, true, nil
		}
	}

	if err := uc.txnRepo.CreatePending(ctx, tx, txn); err != nil {
		if txn.IdempotencyKey != nil && errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			// The keyed-entry index caught a duplicate the registry did
			// not know about. Resolve the winner through the journal.
			_ = tx.Rollback(ctx)

			existing, lookupErr := uc.txnRepo.GetByIdempotencyKey(ctx, *txn.IdempotencyKey)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			return existing, true, nil
		}
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	return txn, false, nil
}

func (uc *TransferUseCase) replayClaimed(ctx context.Context, callerID string, txn *domain.Transaction) (*TransactionResult, error) {
	if err := uc.checkReplayOwner(ctx, callerID, txn); err != nil {
		return nil, err
	}

	uc.metrics.MovementsReplayed.Inc()

	if txn.Status.IsTerminal() {
		return uc.replayTerminal(ctx, txn)
	}

	return &TransactionResult{Transaction: txn, Replayed: true}, nil
}

// move runs the atomic unit: transition to processing, lock the accounts
// in a fixed total order, apply the delta(s), transition to completed.
// Transient backend conflicts are retried with backoff; content failures
// roll the unit back and are recorded as a terminal failed entry.
func (uc *TransferUseCase) move(ctx context.Context, callerID string, txn *domain.Transaction) (*TransactionResult, error) {
	start := time.Now()

	var (
		newBalance decimal.Decimal
		attempts   int
	)

	err := uc.retrier.Retry(ctx, func() error {
		attempts++
		if attempts > 1 {
			uc.metrics.ConflictRetries.Inc()
		}

		balance, err := uc.moveOnce(ctx, txn)
		if err != nil {
			return err
		}

		newBalance = balance
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// A concurrent request bearing the same key drove this entry
			// to completion first; serve its outcome.
			current, getErr := uc.txnRepo.GetByID(ctx, txn.ID)
			if getErr == nil && current.Status != domain.TransactionStatusPending {
				return uc.replayClaimed(ctx, callerID, current)
			}
		}

		if isMovementFailure(err) {
			return uc.recordFailure(ctx, txn, err)
		}

		// Conflict exhaustion or infrastructure failure: nothing was
		// committed and the entry stays pending, so a retry bearing the
		// same key resumes it.
		uc.logger.Error().Err(err).
			Str("transaction_id", txn.ID).
			Msg("money movement aborted")

		return nil, err
	}

	uc.metrics.MovementsCompleted.WithLabelValues(string(txn.Type)).Inc()
	uc.metrics.MovementAmount.Observe(txn.Amount.InexactFloat64())
	uc.metrics.MovementDuration.Observe(time.Since(start).Seconds())

	uc.logger.Info().
		Str("transaction_id", txn.ID).
		Str("type", string(txn.Type)).
		Str("amount", txn.Amount.String()).
		Str("currency", txn.Currency).
		Msg("money movement completed")

	completed, err := uc.txnRepo.GetByID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	return &TransactionResult{Transaction: completed, NewBalance: newBalance}, nil
}

func (uc *TransferUseCase) moveOnce(ctx context.Context, txn *domain.Transaction) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultMovementTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	err = uc.txnRepo.Transition(ctx, tx, txn.ID,
		[]domain.TransactionStatus{domain.TransactionStatusPending},
		domain.TransactionStatusProcessing, nil)
	if err != nil {
		return decimal.Zero, err
	}

	ids := []string{txn.SourceAccountID}
	if txn.DestAccountID != nil {
		ids = append(ids, *txn.DestAccountID)
		// Fixed lock order regardless of which side is the source.
		sort.Strings(ids)
	}

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return decimal.Zero, err
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	source := byID[txn.SourceAccountID]
	if source == nil {
		return decimal.Zero, domain.ErrAccountNotFound
	}

	if err := uc.validateUnderLock(txn, source, byID); err != nil {
		return decimal.Zero, err
	}

	newBalance, err := uc.accountRepo.ApplyDelta(ctx, tx, source.ID, txn.Amount.Neg())
	if err != nil {
		return decimal.Zero, err
	}

	if txn.DestAccountID != nil {
		if _, err := uc.accountRepo.ApplyDelta(ctx, tx, *txn.DestAccountID, txn.Amount); err != nil {
			return decimal.Zero, err
		}
	}

	err = uc.txnRepo.Transition(ctx, tx, txn.ID,
		[]domain.TransactionStatus{domain.TransactionStatusProcessing},
		domain.TransactionStatusCompleted, nil)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

func (uc *TransferUseCase) validateUnderLock(txn *domain.Transaction, source *domain.Account, byID map[string]*domain.Account) error {
	if err := source.EnsureActive(); err != nil {
		return err
	}

	if err := source.EnsureCurrency(txn.Currency); err != nil {
		return err
	}

	if err := source.ValidateDelta(txn.Amount.Neg()); err != nil {
		return err
	}

	if txn.DestAccountID == nil {
		return nil
	}

	dest := byID[*txn.DestAccountID]
	if dest == nil {
		return domain.ErrAccountNotFound
	}

	if err := dest.EnsureActive(); err != nil {
		return err
	}

	return dest.EnsureCurrency(txn.Currency)
}

// recordFailure marks the journal entry terminally failed in its own
// short atomic unit, after the movement unit has rolled back. The failed
// entry stays idempotency-cached: retrying a request that failed for a
// content reason must not silently retry the debit.
func (uc *TransferUseCase) recordFailure(ctx context.Context, txn *domain.Transaction, cause error) (*TransactionResult, error) {
	reason := cause.Error()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = uc.txnRepo.Transition(ctx, tx, txn.ID,
		[]domain.TransactionStatus{domain.TransactionStatusPending},
		domain.TransactionStatusProcessing, nil)
	if err != nil {
		return nil, err
	}

	err = uc.txnRepo.Transition(ctx, tx, txn.ID,
		[]domain.TransactionStatus{domain.TransactionStatusProcessing},
		domain.TransactionStatusFailed, &reason)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.MovementsFailed.WithLabelValues(string(txn.Type), reason).Inc()

	uc.logger.Warn().
		Str("transaction_id", txn.ID).
		Str("type", string(txn.Type)).
		Str("reason", reason).
		Msg("money movement failed")

	failed, err := uc.txnRepo.GetByID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	return &TransactionResult{Transaction: failed}, cause
}

// movementFailures are content errors that terminate the specific
// transaction. Anything else is infrastructure and leaves the entry
// pending for a later resume.
var movementFailures = []error{
	domain.ErrInsufficientFunds,
	domain.ErrCurrencyMismatch,
	domain.ErrAccountNotActive,
	domain.ErrAccountNotFound,
}

func isMovementFailure(err error) bool {
	for _, failure := range movementFailures {
		if errors.Is(err, failure) {
			return true
		}
	}
	return false
}

// failureReasonError maps a recorded failure reason back to its sentinel
// so replayed failures surface the same typed outcome as the original.
func failureReasonError(reason string) error {
	for _, failure := range movementFailures {
		if failure.Error() == reason {
			return failure
		}
	}
	return domain.ErrConflict
}
