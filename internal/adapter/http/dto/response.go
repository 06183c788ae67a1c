package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	IBAN      string          `json:"iban"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		IBAN:      a.IBAN,
		Currency:  a.Currency,
		Balance:   a.Balance,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// BalanceResponse represents a balance snapshot in API responses.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
}

// BalanceFromOutput converts a balance snapshot to response.
func BalanceFromOutput(out *usecase.BalanceOutput) *BalanceResponse {
	return &BalanceResponse{
		AccountID: out.AccountID,
		Balance:   out.Balance,
		Currency:  out.Currency,
	}
}

// TransactionResponse represents a journal entry in API responses.
type TransactionResponse struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	SourceAccountID string          `json:"source_account_id"`
	DestAccountID   *string         `json:"dest_account_id,omitempty"`
	BeneficiaryName *string         `json:"beneficiary_name,omitempty"`
	BeneficiaryIBAN *string         `json:"beneficiary_iban,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	Description     *string         `json:"description,omitempty"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		Type:            string(t.Type),
		SourceAccountID: t.SourceAccountID,
		DestAccountID:   t.DestAccountID,
		BeneficiaryName: t.BeneficiaryName,
		BeneficiaryIBAN: t.BeneficiaryIBAN,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Status:          string(t.Status),
		Description:     t.Description,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// MovementResponse represents the outcome of a money-movement request.
type MovementResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	NewBalance  *decimal.Decimal     `json:"new_balance,omitempty"`
	Replayed    bool                 `json:"replayed"`
}

// MovementFromResult converts a movement result to response. NewBalance
// is only exposed for completed movements.
func MovementFromResult(result *usecase.TransactionResult) *MovementResponse {
	resp := &MovementResponse{
		Transaction: TransactionFromDomain(result.Transaction),
		Replayed:    result.Replayed,
	}

	if result.Transaction.Status == domain.TransactionStatusCompleted {
		balance := result.NewBalance
		resp.NewBalance = &balance
	}

	return resp
}

// BeneficiaryResponse represents a saved payee in API responses.
type BeneficiaryResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	IBAN          string    `json:"iban"`
	AccountNumber *string   `json:"account_number,omitempty"`
	SortCode      *string   `json:"sort_code,omitempty"`
	BankName      *string   `json:"bank_name,omitempty"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeneficiaryFromDomain converts domain beneficiary to response.
func BeneficiaryFromDomain(b *domain.Beneficiary) *BeneficiaryResponse {
	return &BeneficiaryResponse{
		ID:            b.ID,
		Name:          b.Name,
		IBAN:          b.IBAN,
		AccountNumber: b.AccountNumber,
		SortCode:      b.SortCode,
		BankName:      b.BankName,
		Verified:      b.Verified,
		CreatedAt:     b.CreatedAt,
	}
}

// BeneficiariesFromDomain converts domain beneficiaries to responses.
func BeneficiariesFromDomain(beneficiaries []*domain.Beneficiary) []*BeneficiaryResponse {
	result := make([]*BeneficiaryResponse, len(beneficiaries))
	for i, b := range beneficiaries {
		result[i] = BeneficiaryFromDomain(b)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
