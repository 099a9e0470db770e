package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CreditTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewCreditTransactionRepository(db *pgxpool.Pool) *CreditTransactionRepository {
	return &CreditTransactionRepository{DB: db}
}

// Create appends one immutable row to a farmer's credit ledger.
func (r *CreditTransactionRepository) Create(ctx context.Context, tx *models.CreditTransaction, createdAt time.Time) (*models.CreditTransaction, error) {
	query := `
		INSERT INTO credit_transactions (
			farmer_id, type, amount, balance_after,
			reference_type, reference_id, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.DB.QueryRow(ctx, query,
		tx.FarmerID, tx.Type, tx.Amount, tx.BalanceAfter,
		tx.ReferenceType, tx.ReferenceID, tx.Notes, createdAt,
	).Scan(&tx.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create credit transaction: %w", err)
	}
	tx.CreatedAt = createdAt
	return tx, nil
}

// ListByFarmer returns a farmer's ledger in creation order, oldest first.
// Replaying amounts over this ordering must reproduce the profile balance.
func (r *CreditTransactionRepository) ListByFarmer(ctx context.Context, farmerID int) ([]*models.CreditTransaction, error) {
	query := `
		SELECT id, farmer_id, type, amount, balance_after,
			COALESCE(reference_type, '') as reference_type, reference_id,
			COALESCE(notes, '') as notes, created_at
		FROM credit_transactions
		WHERE farmer_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.DB.Query(ctx, query, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.CreditTransaction
	for rows.Next() {
		tx := &models.CreditTransaction{}
		err := rows.Scan(
			&tx.ID, &tx.FarmerID, &tx.Type, &tx.Amount, &tx.BalanceAfter,
			&tx.ReferenceType, &tx.ReferenceID, &tx.Notes, &tx.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
