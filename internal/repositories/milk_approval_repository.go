package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MilkApprovalRepository struct {
	DB *pgxpool.Pool
}

func NewMilkApprovalRepository(db *pgxpool.Pool) *MilkApprovalRepository {
	return &MilkApprovalRepository{DB: db}
}

func (r *MilkApprovalRepository) Create(ctx context.Context, a *models.MilkApproval) (*models.MilkApproval, error) {
	query := `
		INSERT INTO milk_approvals (
			collection_id, collector_id, staff_id, received_liters,
			variance_liters, variance_percentage, variance_type,
			penalty_amount, penalty_status, approved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.DB.QueryRow(ctx, query,
		a.CollectionID, a.CollectorID, a.StaffID, a.ReceivedLiters,
		a.VarianceLiters, a.VariancePercentage, a.VarianceType,
		a.PenaltyAmount, a.PenaltyStatus, a.ApprovedAt,
	).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create milk approval: %w", err)
	}
	return a, nil
}

func (r *MilkApprovalRepository) GetByCollectionID(ctx context.Context, collectionID int) (*models.MilkApproval, error) {
	query := `
		SELECT id, collection_id, collector_id, staff_id, received_liters,
			variance_liters, variance_percentage, variance_type,
			penalty_amount, penalty_status, approved_at
		FROM milk_approvals
		WHERE collection_id = $1
	`

	a := &models.MilkApproval{}
	err := r.DB.QueryRow(ctx, query, collectionID).Scan(
		&a.ID, &a.CollectionID, &a.CollectorID, &a.StaffID, &a.ReceivedLiters,
		&a.VarianceLiters, &a.VariancePercentage, &a.VarianceType,
		&a.PenaltyAmount, &a.PenaltyStatus, &a.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListPendingByCollectionIDs returns approvals for the given collections
// whose penalty is still unsettled.
func (r *MilkApprovalRepository) ListPendingByCollectionIDs(ctx context.Context, collectionIDs []int) ([]*models.MilkApproval, error) {
	if len(collectionIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, collection_id, collector_id, staff_id, received_liters,
			variance_liters, variance_percentage, variance_type,
			penalty_amount, penalty_status, approved_at
		FROM milk_approvals
		WHERE collection_id = ANY($1) AND penalty_status = 'PENDING'
		ORDER BY id ASC
	`

	rows, err := r.DB.Query(ctx, query, collectionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []*models.MilkApproval
	for rows.Next() {
		a := &models.MilkApproval{}
		err := rows.Scan(
			&a.ID, &a.CollectionID, &a.CollectorID, &a.StaffID, &a.ReceivedLiters,
			&a.VarianceLiters, &a.VariancePercentage, &a.VarianceType,
			&a.PenaltyAmount, &a.PenaltyStatus, &a.ApprovedAt,
		)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, nil
}

// MarkPenaltyPaidBatch settles every listed approval in one statement.
func (r *MilkApprovalRepository) MarkPenaltyPaidBatch(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.DB.Exec(ctx,
		"UPDATE milk_approvals SET penalty_status = 'PAID' WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkPenaltyPaid settles a single approval. Used by the per-record fallback
// when the batch update is rejected; setting PAID on an already-PAID row is
// a no-op.
func (r *MilkApprovalRepository) MarkPenaltyPaid(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		"UPDATE milk_approvals SET penalty_status = 'PAID' WHERE id = $1", id)
	return err
}

// ListByCollectorDate returns all approvals for a collector's collections on
// one calendar date, the input for a daily summary recompute.
func (r *MilkApprovalRepository) ListByCollectorDate(ctx context.Context, collectorID int, date time.Time) ([]*models.MilkApproval, error) {
	query := `
		SELECT a.id, a.collection_id, a.collector_id, a.staff_id, a.received_liters,
			a.variance_liters, a.variance_percentage, a.variance_type,
			a.penalty_amount, a.penalty_status, a.approved_at
		FROM milk_approvals a
		JOIN collections c ON c.id = a.collection_id
		WHERE a.collector_id = $1 AND c.collection_date = $2
		ORDER BY a.id ASC
	`

	rows, err := r.DB.Query(ctx, query, collectorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []*models.MilkApproval
	for rows.Next() {
		a := &models.MilkApproval{}
		err := rows.Scan(
			&a.ID, &a.CollectionID, &a.CollectorID, &a.StaffID, &a.ReceivedLiters,
			&a.VarianceLiters, &a.VariancePercentage, &a.VarianceType,
			&a.PenaltyAmount, &a.PenaltyStatus, &a.ApprovedAt,
		)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, nil
}
