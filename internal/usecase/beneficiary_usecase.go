package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/harborbank/bankcore/internal/domain"
)

// ErrInvalidBeneficiary rejects malformed beneficiary records.
var ErrInvalidBeneficiary = errors.New("invalid beneficiary")

// BeneficiaryUseCase manages the caller's directory of saved payees.
type BeneficiaryUseCase struct {
	beneficiaryRepo BeneficiaryRepository
	idGen           IDGenerator
}

// NewBeneficiaryUseCase creates a new BeneficiaryUseCase.
func NewBeneficiaryUseCase(beneficiaryRepo BeneficiaryRepository, idGen IDGenerator) *BeneficiaryUseCase {
	return &BeneficiaryUseCase{
		beneficiaryRepo: beneficiaryRepo,
		idGen:           idGen,
	}
}

// CreateBeneficiaryInput represents input for saving a payee.
type CreateBeneficiaryInput struct {
	CallerID      string
	Name          string
	IBAN          string
	AccountNumber *string
	SortCode      *string
	BankName      *string
}

// CreateBeneficiary saves a payee. New beneficiaries start unverified.
func (uc *BeneficiaryUseCase) CreateBeneficiary(ctx context.Context, input CreateBeneficiaryInput) (*domain.Beneficiary, error) {
	if input.Name == "" {
		return nil, ErrInvalidBeneficiary
	}

	if err := domain.ValidateIBAN(input.IBAN); err != nil {
		return nil, err
	}

	beneficiary := &domain.Beneficiary{
		ID:            uc.idGen.Generate(),
		UserID:        input.CallerID,
		Name:          input.Name,
		IBAN:          input.IBAN,
		AccountNumber: input.AccountNumber,
		SortCode:      input.SortCode,
		BankName:      input.BankName,
		Verified:      false,
		CreatedAt:     time.Now().UTC(),
	}

	if err := uc.beneficiaryRepo.Create(ctx, beneficiary); err != nil {
		return nil, err
	}

	return beneficiary, nil
}

// GetBeneficiary retrieves one of the caller's saved payees.
func (uc *BeneficiaryUseCase) GetBeneficiary(ctx context.Context, callerID, id string) (*domain.Beneficiary, error) {
	return uc.beneficiaryRepo.GetByID(ctx, id, callerID)
}

// ListBeneficiaries lists the caller's saved payees.
func (uc *BeneficiaryUseCase) ListBeneficiaries(ctx context.Context, callerID string) ([]*domain.Beneficiary, error) {
	return uc.beneficiaryRepo.ListByUser(ctx, callerID)
}

// DeleteBeneficiary removes one of the caller's saved payees.
func (uc *BeneficiaryUseCase) DeleteBeneficiary(ctx context.Context, callerID, id string) error {
	return uc.beneficiaryRepo.Delete(ctx, id, callerID)
}
