package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

// Account represents a customer account holding a balance in a single currency.
type Account struct {
	ID        string
	OwnerID   string
	IBAN      string
	Currency  string
	Balance   decimal.Decimal
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EnsureActive checks that the account can participate in money movement.
func (a *Account) EnsureActive() error {
	if a.Status != AccountStatusActive {
		return ErrAccountNotActive
	}
	return nil
}

// EnsureCurrency checks that amounts in the given currency may be applied.
func (a *Account) EnsureCurrency(currency string) error {
	if a.Currency != currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// ValidateDelta checks whether applying a signed delta would leave the
// balance non-negative. Overdrafts are never allowed.
func (a *Account) ValidateDelta(delta decimal.Decimal) error {
	if a.Balance.Add(delta).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDelta returns the balance after applying a signed delta.
func (a *Account) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(delta)
}
