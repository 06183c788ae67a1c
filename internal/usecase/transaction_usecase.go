package usecase

import (
	"context"

	"github.com/harborbank/bankcore/internal/domain"
)

// TransactionUseCase handles journal queries.
type TransactionUseCase struct {
	txnRepo     TransactionRepository
	accountRepo AccountRepository
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(txnRepo TransactionRepository, accountRepo AccountRepository) *TransactionUseCase {
	return &TransactionUseCase{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
	}
}

// GetTransaction retrieves a transaction visible to the caller.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.ensureOwner(ctx, callerID, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	CallerID  string
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactions lists an account's transactions, most recent first.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.OwnerID != input.CallerID {
		return nil, domain.ErrNotAccountOwner
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.txnRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

// ensureOwner allows access for the owner of either side of the movement.
func (uc *TransactionUseCase) ensureOwner(ctx context.Context, callerID string, txn *domain.Transaction) error {
	source, err := uc.accountRepo.GetByID(ctx, txn.SourceAccountID)
	if err != nil {
		return err
	}

	if source.OwnerID == callerID {
		return nil
	}

	if txn.DestAccountID != nil {
		dest, err := uc.accountRepo.GetByID(ctx, *txn.DestAccountID)
		if err == nil && dest.OwnerID == callerID {
			return nil
		}
	}

	return domain.ErrNotAccountOwner
}
