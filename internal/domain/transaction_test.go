package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{"pending to processing", TransactionStatusPending, TransactionStatusProcessing, true},
		{"pending to cancelled", TransactionStatusPending, TransactionStatusCancelled, true},
		{"pending to completed skips processing", TransactionStatusPending, TransactionStatusCompleted, false},
		{"pending to failed skips processing", TransactionStatusPending, TransactionStatusFailed, false},
		{"processing to completed", TransactionStatusProcessing, TransactionStatusCompleted, true},
		{"processing to failed", TransactionStatusProcessing, TransactionStatusFailed, true},
		{"processing back to pending forbidden", TransactionStatusProcessing, TransactionStatusPending, false},
		{"processing to cancelled forbidden", TransactionStatusProcessing, TransactionStatusCancelled, false},
		{"completed is terminal", TransactionStatusCompleted, TransactionStatusFailed, false},
		{"failed is terminal", TransactionStatusFailed, TransactionStatusCompleted, false},
		{"cancelled is terminal", TransactionStatusCancelled, TransactionStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	terminal := []TransactionStatus{TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	nonTerminal := []TransactionStatus{TransactionStatusPending, TransactionStatusProcessing}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestTransaction_Validate(t *testing.T) {
	dest := "acc-1"

	tests := []struct {
		name        string
		txn         Transaction
		expectError error
	}{
		{
			name: "valid send",
			txn: Transaction{
				Type:            TransactionTypeSend,
				SourceAccountID: "acc-1",
				Amount:          decimal.NewFromInt(30),
				Currency:        "GBP",
			},
		},
		{
			name: "zero amount",
			txn: Transaction{
				Type:            TransactionTypeSend,
				SourceAccountID: "acc-1",
				Amount:          decimal.Zero,
				Currency:        "GBP",
			},
			expectError: ErrInvalidAmount,
		},
		{
			name: "negative amount",
			txn: Transaction{
				Type:            TransactionTypeTransfer,
				SourceAccountID: "acc-1",
				DestAccountID:   &dest,
				Amount:          decimal.NewFromInt(-5),
				Currency:        "GBP",
			},
			expectError: ErrInvalidAmount,
		},
		{
			name: "self transfer",
			txn: Transaction{
				Type:            TransactionTypeTransfer,
				SourceAccountID: "acc-1",
				DestAccountID:   &dest,
				Amount:          decimal.NewFromInt(10),
				Currency:        "GBP",
			},
			expectError: ErrSameAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txn.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.expectError != nil && err != tt.expectError {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}
