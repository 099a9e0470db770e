package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CollectionRepository struct {
	DB *pgxpool.Pool
}

func NewCollectionRepository(db *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{DB: db}
}

func (r *CollectionRepository) Create(ctx context.Context, farmerID, collectorID int, liters float64, date time.Time) (*models.Collection, error) {
	query := `
		INSERT INTO collections (farmer_id, collector_id, liters_collected, collection_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, approved_for_payment, fee_status, created_at
	`

	c := &models.Collection{
		FarmerID:        farmerID,
		CollectorID:     collectorID,
		LitersCollected: liters,
		CollectionDate:  date,
	}
	err := r.DB.QueryRow(ctx, query, farmerID, collectorID, liters, date).Scan(
		&c.ID, &c.ApprovedForPayment, &c.FeeStatus, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return c, nil
}

func (r *CollectionRepository) Get(ctx context.Context, id int) (*models.Collection, error) {
	query := `
		SELECT id, farmer_id, collector_id, liters_collected, collection_date,
			approved_for_payment, fee_status, created_at
		FROM collections
		WHERE id = $1
	`

	c := &models.Collection{}
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FarmerID, &c.CollectorID, &c.LitersCollected, &c.CollectionDate,
		&c.ApprovedForPayment, &c.FeeStatus, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetApprovedForPayment flags a collection as eligible for the payment run.
func (r *CollectionRepository) SetApprovedForPayment(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		"UPDATE collections SET approved_for_payment = TRUE WHERE id = $1", id)
	return err
}

// ListPayable returns a collector's collections that are approved for payment
// and still unsettled, optionally restricted to a date range. Settled rows
// are excluded so a reconciliation re-run selects nothing new.
func (r *CollectionRepository) ListPayable(ctx context.Context, collectorID int, from, to *time.Time) ([]*models.Collection, error) {
	query := `
		SELECT id, farmer_id, collector_id, liters_collected, collection_date,
			approved_for_payment, fee_status, created_at
		FROM collections
		WHERE collector_id = $1 AND approved_for_payment = TRUE AND fee_status = 'PENDING'
	`
	args := []interface{}{collectorID}
	argNum := 2

	if from != nil {
		query += fmt.Sprintf(" AND collection_date >= $%d", argNum)
		args = append(args, *from)
		argNum++
	}
	if to != nil {
		query += fmt.Sprintf(" AND collection_date <= $%d", argNum)
		args = append(args, *to)
		argNum++
	}
	query += " ORDER BY collection_date ASC, id ASC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		c := &models.Collection{}
		err := rows.Scan(
			&c.ID, &c.FarmerID, &c.CollectorID, &c.LitersCollected, &c.CollectionDate,
			&c.ApprovedForPayment, &c.FeeStatus, &c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, nil
}

// MarkPaidBatch sets fee_status = PAID on all ids in one statement. The
// update is atomic within the table: either every matched row flips or the
// call errors with nothing changed.
func (r *CollectionRepository) MarkPaidBatch(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.DB.Exec(ctx,
		"UPDATE collections SET fee_status = 'PAID' WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *CollectionRepository) ListByCollectorDate(ctx context.Context, collectorID int, date time.Time) ([]*models.Collection, error) {
	query := `
		SELECT id, farmer_id, collector_id, liters_collected, collection_date,
			approved_for_payment, fee_status, created_at
		FROM collections
		WHERE collector_id = $1 AND collection_date = $2
		ORDER BY id ASC
	`

	rows, err := r.DB.Query(ctx, query, collectorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		c := &models.Collection{}
		err := rows.Scan(
			&c.ID, &c.FarmerID, &c.CollectorID, &c.LitersCollected, &c.CollectionDate,
			&c.ApprovedForPayment, &c.FeeStatus, &c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, nil
}
