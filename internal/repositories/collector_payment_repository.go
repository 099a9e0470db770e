package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CollectorPaymentRepository struct {
	DB *pgxpool.Pool
}

func NewCollectorPaymentRepository(db *pgxpool.Pool) *CollectorPaymentRepository {
	return &CollectorPaymentRepository{DB: db}
}

func (r *CollectorPaymentRepository) Create(ctx context.Context, p *models.CollectorPayment, createdAt time.Time) (*models.CollectorPayment, error) {
	query := `
		INSERT INTO collector_payments (
			collector_id, period_start, period_end, total_collections,
			total_liters, rate_per_liter, total_penalties, total_earnings,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.DB.QueryRow(ctx, query,
		p.CollectorID, p.PeriodStart, p.PeriodEnd, p.TotalCollections,
		p.TotalLiters, p.RatePerLiter, p.TotalPenalties, p.TotalEarnings,
		p.Status, createdAt,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create collector payment: %w", err)
	}
	p.CreatedAt = createdAt
	return p, nil
}

func (r *CollectorPaymentRepository) Get(ctx context.Context, id int) (*models.CollectorPayment, error) {
	query := `
		SELECT id, collector_id, period_start, period_end, total_collections,
			total_liters, rate_per_liter, total_penalties, total_earnings,
			status, created_at
		FROM collector_payments
		WHERE id = $1
	`

	p := &models.CollectorPayment{}
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.CollectorID, &p.PeriodStart, &p.PeriodEnd, &p.TotalCollections,
		&p.TotalLiters, &p.RatePerLiter, &p.TotalPenalties, &p.TotalEarnings,
		&p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *CollectorPaymentRepository) ListByCollector(ctx context.Context, collectorID int) ([]*models.CollectorPayment, error) {
	query := `
		SELECT id, collector_id, period_start, period_end, total_collections,
			total_liters, rate_per_liter, total_penalties, total_earnings,
			status, created_at
		FROM collector_payments
		WHERE collector_id = $1
		ORDER BY period_start DESC
	`

	rows, err := r.DB.Query(ctx, query, collectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.CollectorPayment
	for rows.Next() {
		p := &models.CollectorPayment{}
		err := rows.Scan(
			&p.ID, &p.CollectorID, &p.PeriodStart, &p.PeriodEnd, &p.TotalCollections,
			&p.TotalLiters, &p.RatePerLiter, &p.TotalPenalties, &p.TotalEarnings,
			&p.Status, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}
