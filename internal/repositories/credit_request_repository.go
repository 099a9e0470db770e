package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CreditRequestRepository struct {
	DB *pgxpool.Pool
}

func NewCreditRequestRepository(db *pgxpool.Pool) *CreditRequestRepository {
	return &CreditRequestRepository{DB: db}
}

func (r *CreditRequestRepository) Create(ctx context.Context, req *models.CreateCreditRequestRequest, totalAmount float64) (*models.CreditRequest, error) {
	query := `
		INSERT INTO credit_requests (farmer_id, packaging_id, quantity, unit_price, total_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	cr := &models.CreditRequest{
		FarmerID:    req.FarmerID,
		PackagingID: req.PackagingID,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalAmount: totalAmount,
		Status:      models.CreditRequestPending,
		Notes:       req.Notes,
	}
	err := r.DB.QueryRow(ctx, query,
		req.FarmerID, req.PackagingID, req.Quantity, req.UnitPrice, totalAmount, req.Notes,
	).Scan(&cr.ID, &cr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create credit request: %w", err)
	}
	return cr, nil
}

func (r *CreditRequestRepository) Get(ctx context.Context, id int) (*models.CreditRequest, error) {
	query := `
		SELECT id, farmer_id, packaging_id, quantity, unit_price, total_amount,
			status, COALESCE(notes, '') as notes, processed_by_user_id, processed_at, created_at
		FROM credit_requests
		WHERE id = $1
	`

	cr := &models.CreditRequest{}
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&cr.ID, &cr.FarmerID, &cr.PackagingID, &cr.Quantity, &cr.UnitPrice,
		&cr.TotalAmount, &cr.Status, &cr.Notes, &cr.ProcessedByUserID, &cr.ProcessedAt, &cr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cr, nil
}

func (r *CreditRequestRepository) ListPending(ctx context.Context) ([]*models.CreditRequest, error) {
	query := `
		SELECT id, farmer_id, packaging_id, quantity, unit_price, total_amount,
			status, COALESCE(notes, '') as notes, processed_by_user_id, processed_at, created_at
		FROM credit_requests
		WHERE status = 'PENDING'
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.CreditRequest
	for rows.Next() {
		cr := &models.CreditRequest{}
		err := rows.Scan(
			&cr.ID, &cr.FarmerID, &cr.PackagingID, &cr.Quantity, &cr.UnitPrice,
			&cr.TotalAmount, &cr.Status, &cr.Notes, &cr.ProcessedByUserID, &cr.ProcessedAt, &cr.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, cr)
	}
	return requests, nil
}

// Settle moves a request out of PENDING and records who decided it. A nil
// processedBy means the system auto-approved the request, not an admin.
// The status predicate makes the transition terminal: a request already
// settled matches zero rows.
func (r *CreditRequestRepository) Settle(ctx context.Context, id int, status models.CreditRequestStatus, notes string, processedBy *int, processedAt time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE credit_requests
		SET status = $1, notes = CASE WHEN $2 <> '' THEN $2 ELSE notes END,
			processed_by_user_id = $3, processed_at = $4
		WHERE id = $5 AND status = 'PENDING'
	`, status, notes, processedBy, processedAt, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
