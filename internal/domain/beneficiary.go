package domain

import "time"

// Beneficiary is a saved external payee a user can send money to.
type Beneficiary struct {
	ID            string
	UserID        string
	Name          string
	IBAN          string
	AccountNumber *string
	SortCode      *string
	BankName      *string
	Verified      bool
	CreatedAt     time.Time
}
