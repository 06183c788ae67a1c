package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborbank/bankcore/internal/domain"
)

const beneficiaryColumns = `id, user_id, name, iban, account_number, sort_code, bank_name, verified, created_at`

// BeneficiaryRepository implements usecase.BeneficiaryRepository.
type BeneficiaryRepository struct {
	pool *pgxpool.Pool
}

// NewBeneficiaryRepository creates a new BeneficiaryRepository.
func NewBeneficiaryRepository(pool *pgxpool.Pool) *BeneficiaryRepository {
	return &BeneficiaryRepository{pool: pool}
}

// Create saves a beneficiary.
func (r *BeneficiaryRepository) Create(ctx context.Context, beneficiary *domain.Beneficiary) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO beneficiaries (`+beneficiaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		beneficiary.ID,
		beneficiary.UserID,
		beneficiary.Name,
		beneficiary.IBAN,
		beneficiary.AccountNumber,
		beneficiary.SortCode,
		beneficiary.BankName,
		beneficiary.Verified,
		timeToPgTimestamptz(beneficiary.CreatedAt),
	)

	return err
}

// GetByID retrieves a beneficiary scoped to its owner.
func (r *BeneficiaryRepository) GetByID(ctx context.Context, id, userID string) (*domain.Beneficiary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+beneficiaryColumns+`
		FROM beneficiaries
		WHERE id = $1 AND user_id = $2`, id, userID)

	return scanBeneficiary(row)
}

// ListByUser lists a user's beneficiaries.
func (r *BeneficiaryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Beneficiary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+beneficiaryColumns+`
		FROM beneficiaries
		WHERE user_id = $1
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beneficiaries []*domain.Beneficiary
	for rows.Next() {
		beneficiary, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		beneficiaries = append(beneficiaries, beneficiary)
	}

	return beneficiaries, rows.Err()
}

// Delete removes a beneficiary scoped to its owner.
func (r *BeneficiaryRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM beneficiaries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBeneficiaryNotFound
	}

	return nil
}

func scanBeneficiary(row pgx.Row) (*domain.Beneficiary, error) {
	var (
		beneficiary domain.Beneficiary
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&beneficiary.ID,
		&beneficiary.UserID,
		&beneficiary.Name,
		&beneficiary.IBAN,
		&beneficiary.AccountNumber,
		&beneficiary.SortCode,
		&beneficiary.BankName,
		&beneficiary.Verified,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBeneficiaryNotFound
		}

		return nil, err
	}

	beneficiary.CreatedAt = createdAt.Time

	return &beneficiary, nil
}
