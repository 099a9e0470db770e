package repositories

import (
	"context"
	"fmt"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CreditProfileRepository struct {
	DB *pgxpool.Pool
}

func NewCreditProfileRepository(db *pgxpool.Pool) *CreditProfileRepository {
	return &CreditProfileRepository{DB: db}
}

// Create opens a credit profile for a newly approved farmer.
func (r *CreditProfileRepository) Create(ctx context.Context, farmerID int, tier models.CreditTier, creditLimit float64) (*models.CreditProfile, error) {
	query := `
		INSERT INTO credit_profiles (farmer_id, tier, credit_limit)
		VALUES ($1, $2, $3)
		RETURNING id, current_balance, total_credit_used, total_repaid,
			pending_deductions, updated_at, created_at
	`

	p := &models.CreditProfile{
		FarmerID:    farmerID,
		Tier:        tier,
		CreditLimit: creditLimit,
	}
	err := r.DB.QueryRow(ctx, query, farmerID, tier, creditLimit).Scan(
		&p.ID, &p.CurrentBalance, &p.TotalCreditUsed, &p.TotalRepaid,
		&p.PendingDeductions, &p.UpdatedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credit profile: %w", err)
	}
	return p, nil
}

func (r *CreditProfileRepository) GetByFarmerID(ctx context.Context, farmerID int) (*models.CreditProfile, error) {
	query := `
		SELECT id, farmer_id, tier, credit_limit, current_balance,
			total_credit_used, total_repaid, pending_deductions, updated_at, created_at
		FROM credit_profiles
		WHERE farmer_id = $1
	`

	p := &models.CreditProfile{}
	err := r.DB.QueryRow(ctx, query, farmerID).Scan(
		&p.ID, &p.FarmerID, &p.Tier, &p.CreditLimit, &p.CurrentBalance,
		&p.TotalCreditUsed, &p.TotalRepaid, &p.PendingDeductions, &p.UpdatedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyBalance performs an optimistic check-and-set on a farmer's balance.
// The update only lands if current_balance still equals expectedBalance;
// a false return means another caller moved the balance first and the
// caller must re-read and re-validate.
func (r *CreditProfileRepository) ApplyBalance(ctx context.Context, farmerID int, expectedBalance, newBalance, newTotalUsed, newTotalRepaid float64) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE credit_profiles
		SET current_balance = $1, total_credit_used = $2, total_repaid = $3,
			updated_at = NOW()
		WHERE farmer_id = $4 AND current_balance = $5
	`, newBalance, newTotalUsed, newTotalRepaid, farmerID, expectedBalance)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CreditProfileRepository) List(ctx context.Context) ([]*models.CreditProfile, error) {
	query := `
		SELECT id, farmer_id, tier, credit_limit, current_balance,
			total_credit_used, total_repaid, pending_deductions, updated_at, created_at
		FROM credit_profiles
		ORDER BY farmer_id
	`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.CreditProfile
	for rows.Next() {
		p := &models.CreditProfile{}
		err := rows.Scan(
			&p.ID, &p.FarmerID, &p.Tier, &p.CreditLimit, &p.CurrentBalance,
			&p.TotalCreditUsed, &p.TotalRepaid, &p.PendingDeductions, &p.UpdatedAt, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
