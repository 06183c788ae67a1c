package usecase

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/harborbank/bankcore/internal/domain"
)

// AccountUseCase handles account reads. Balances are served through a
// short-TTL display cache; the authoritative value always lives in the
// store and is only ever mutated inside the orchestrator's atomic unit.
type AccountUseCase struct {
	accountRepo AccountRepository
	cache       Cache
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, cache Cache) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		cache:       cache,
	}
}

// BalanceOutput is a display-purpose balance snapshot.
type BalanceOutput struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
}

// GetBalance returns the balance of an account owned by the caller.
func (uc *AccountUseCase) GetBalance(ctx context.Context, callerID, accountID string) (*BalanceOutput, error) {
	if cached, err := uc.cache.Get(ctx, balanceCacheKey(callerID, accountID)); err == nil {
		var out BalanceOutput
		if json.Unmarshal([]byte(cached), &out) == nil {
			return &out, nil
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.OwnerID != callerID {
		return nil, domain.ErrNotAccountOwner
	}

	out := &BalanceOutput{
		AccountID: account.ID,
		Balance:   account.Balance,
		Currency:  account.Currency,
	}

	if encoded, err := json.Marshal(out); err == nil {
		_ = uc.cache.Set(ctx, balanceCacheKey(callerID, accountID), string(encoded), BalanceCacheTTL)
	}

	return out, nil
}

// ListAccountsInput represents input for listing the caller's accounts.
type ListAccountsInput struct {
	CallerID string
	Limit    int
	Offset   int
}

// ListAccounts lists the caller's accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.accountRepo.ListByOwner(ctx, input.CallerID, limit, offset)
}

// balanceCacheKey scopes cached balances to the owner so a stale entry can
// never leak across callers.
func balanceCacheKey(callerID, accountID string) string {
	return "balance:" + callerID + ":" + accountID
}
