package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes external payouts from internal transfers.
type TransactionType string

const (
	// TransactionTypeSend debits an account in favour of an external beneficiary.
	TransactionTypeSend TransactionType = "send"
	// TransactionTypeTransfer moves money between two accounts held here.
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the journal state of a money movement.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
)

// allowedTransitions is the closed state machine for journal entries.
// Terminal states have no outgoing edges; processing never returns to
// pending, which rules out re-entrant double execution.
var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusCancelled},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Transaction is an immutable-once-terminal journal record of a money movement.
type Transaction struct {
	ID              string
	Type            TransactionType
	SourceAccountID string
	DestAccountID   *string
	BeneficiaryName *string
	BeneficiaryIBAN *string
	Amount          decimal.Decimal
	Currency        string
	Status          TransactionStatus
	Description     *string
	IdempotencyKey  *string
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate validates the journal entry at creation time.
func (t *Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if err := ValidateCurrency(t.Currency); err != nil {
		return err
	}

	if t.Type == TransactionTypeTransfer && t.DestAccountID != nil && *t.DestAccountID == t.SourceAccountID {
		return ErrSameAccount
	}

	return nil
}
