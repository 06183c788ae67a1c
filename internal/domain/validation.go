package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrInvalidIBAN     = errors.New("invalid IBAN")
)

// Validation constants
const (
	MaxMovementAmount = "1000000000" // 1 billion per movement
	MinIBANLength     = 15
	MaxIBANLength     = 34
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "PLN": true, "TRY": true, "HKD": true,
}

// ValidateCurrency validates an ISO 4217 currency code.
func ValidateCurrency(currency string) error {
	if !validCurrencies[strings.ToUpper(strings.TrimSpace(currency))] {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}
	return nil
}

// ValidateAmount validates a movement amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxMovementAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxMovementAmount)
	}

	return nil
}

// ValidateIBAN performs a light structural check on an IBAN. Full mod-97
// validation is the payment gateway's job, not ours.
func ValidateIBAN(iban string) error {
	iban = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(iban)), " ", "")

	if len(iban) < MinIBANLength || len(iban) > MaxIBANLength {
		return fmt.Errorf("%w: length %d out of range", ErrInvalidIBAN, len(iban))
	}

	for i, r := range iban {
		isLetter := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'

		if i < 2 && !isLetter {
			return fmt.Errorf("%w: must start with country code", ErrInvalidIBAN)
		}

		if !isLetter && !isDigit {
			return fmt.Errorf("%w: illegal character", ErrInvalidIBAN)
		}
	}

	return nil
}

// ValidatePagination clamps pagination parameters to safe bounds.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 100
	const defaultPageSize = 20

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
