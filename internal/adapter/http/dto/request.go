package dto

import (
	"github.com/shopspring/decimal"

	"github.com/harborbank/bankcore/internal/usecase"
)

// SendMoneyRequest represents a request to pay an external beneficiary.
type SendMoneyRequest struct {
	SourceAccountID string          `json:"source_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	BeneficiaryName string          `json:"beneficiary_name"`
	BeneficiaryIBAN string          `json:"beneficiary_iban"`
	Description     *string         `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SendMoneyRequest) ToUseCaseInput(callerID string, idempotencyKey *string) usecase.SendInput {
	return usecase.SendInput{
		CallerID:        callerID,
		SourceAccountID: r.SourceAccountID,
		Amount:          r.Amount,
		Currency:        r.Currency,
		BeneficiaryName: r.BeneficiaryName,
		BeneficiaryIBAN: r.BeneficiaryIBAN,
		Description:     r.Description,
		IdempotencyKey:  idempotencyKey,
	}
}

// TransferMoneyRequest represents a request to move money between two
// accounts held here.
type TransferMoneyRequest struct {
	SourceAccountID string          `json:"source_account_id"`
	DestAccountID   string          `json:"dest_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Description     *string         `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferMoneyRequest) ToUseCaseInput(callerID string, idempotencyKey *string) usecase.TransferInput {
	return usecase.TransferInput{
		CallerID:        callerID,
		SourceAccountID: r.SourceAccountID,
		DestAccountID:   r.DestAccountID,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Description:     r.Description,
		IdempotencyKey:  idempotencyKey,
	}
}

// CreateBeneficiaryRequest represents a request to save a payee.
type CreateBeneficiaryRequest struct {
	Name          string  `json:"name"`
	IBAN          string  `json:"iban"`
	AccountNumber *string `json:"account_number,omitempty"`
	SortCode      *string `json:"sort_code,omitempty"`
	BankName      *string `json:"bank_name,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBeneficiaryRequest) ToUseCaseInput(callerID string) usecase.CreateBeneficiaryInput {
	return usecase.CreateBeneficiaryInput{
		CallerID:      callerID,
		Name:          r.Name,
		IBAN:          r.IBAN,
		AccountNumber: r.AccountNumber,
		SortCode:      r.SortCode,
		BankName:      r.BankName,
	}
}
