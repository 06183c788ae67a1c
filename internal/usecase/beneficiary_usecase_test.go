package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
	"github.com/harborbank/bankcore/internal/usecase/mocks"
)

func TestCreateBeneficiary(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockBeneficiaryRepository(ctrl)
	uc := usecase.NewBeneficiaryUseCase(repo, &mocks.SeqIDGenerator{})

	var stored *domain.Beneficiary
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b *domain.Beneficiary) error {
			stored = b
			return nil
		})

	out, err := uc.CreateBeneficiary(context.Background(), usecase.CreateBeneficiaryInput{
		CallerID: "user-1",
		Name:     "Alice Smith",
		IBAN:     "DE89370400440532013000",
		BankName: strPtr("Deutsche Bank"),
	})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, "id-0001", out.ID)
	assert.Equal(t, "user-1", out.UserID)
	assert.Equal(t, "Alice Smith", out.Name)
	assert.False(t, out.Verified, "new beneficiaries start unverified")
	assert.False(t, out.CreatedAt.IsZero())
}

func TestCreateBeneficiary_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreateBeneficiaryInput
		wantErr error
	}{
		{
			name:    "empty name",
			input:   usecase.CreateBeneficiaryInput{CallerID: "user-1", IBAN: "DE89370400440532013000"},
			wantErr: usecase.ErrInvalidBeneficiary,
		},
		{
			name:    "bad iban",
			input:   usecase.CreateBeneficiaryInput{CallerID: "user-1", Name: "Alice", IBAN: "nope"},
			wantErr: domain.ErrInvalidIBAN,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockBeneficiaryRepository(ctrl)
			uc := usecase.NewBeneficiaryUseCase(repo, &mocks.SeqIDGenerator{})

			_, err := uc.CreateBeneficiary(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBeneficiary_CallerScoping(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockBeneficiaryRepository(ctrl)
	uc := usecase.NewBeneficiaryUseCase(repo, &mocks.SeqIDGenerator{})

	beneficiary := &domain.Beneficiary{ID: "ben-1", UserID: "user-1", Name: "Alice"}

	repo.EXPECT().GetByID(gomock.Any(), "ben-1", "user-1").Return(beneficiary, nil)
	repo.EXPECT().ListByUser(gomock.Any(), "user-1").Return([]*domain.Beneficiary{beneficiary}, nil)
	repo.EXPECT().Delete(gomock.Any(), "ben-1", "user-1").Return(nil)

	got, err := uc.GetBeneficiary(context.Background(), "user-1", "ben-1")
	require.NoError(t, err)
	assert.Equal(t, "ben-1", got.ID)

	list, err := uc.ListBeneficiaries(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, uc.DeleteBeneficiary(context.Background(), "user-1", "ben-1"))
}

func TestGetBeneficiary_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockBeneficiaryRepository(ctrl)
	uc := usecase.NewBeneficiaryUseCase(repo, &mocks.SeqIDGenerator{})

	repo.EXPECT().GetByID(gomock.Any(), "ben-missing", "user-1").Return(nil, domain.ErrBeneficiaryNotFound)

	_, err := uc.GetBeneficiary(context.Background(), "user-1", "ben-missing")
	require.ErrorIs(t, err, domain.ErrBeneficiaryNotFound)
}
