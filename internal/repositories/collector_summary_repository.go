package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CollectorSummaryRepository struct {
	DB *pgxpool.Pool
}

func NewCollectorSummaryRepository(db *pgxpool.Pool) *CollectorSummaryRepository {
	return &CollectorSummaryRepository{DB: db}
}

// Upsert replaces the summary row for a collector+date wholesale. The
// summary is derived data; a recompute always wins over whatever was there
// before, which keeps retries from double counting.
func (r *CollectorSummaryRepository) Upsert(ctx context.Context, s *models.CollectorDailySummary) error {
	query := `
		INSERT INTO collector_daily_summaries (
			collector_id, summary_date, total_collections,
			total_liters_collected, total_liters_received,
			total_variance_liters, total_penalty_amount, penalty_status, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (collector_id, summary_date)
		DO UPDATE SET
			total_collections = $3,
			total_liters_collected = $4,
			total_liters_received = $5,
			total_variance_liters = $6,
			total_penalty_amount = $7,
			penalty_status = $8,
			updated_at = NOW()
	`

	_, err := r.DB.Exec(ctx, query,
		s.CollectorID, s.SummaryDate, s.TotalCollections,
		s.TotalLitersCollected, s.TotalLitersReceived,
		s.TotalVarianceLiters, s.TotalPenaltyAmount, s.PenaltyStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

func (r *CollectorSummaryRepository) Get(ctx context.Context, collectorID int, date time.Time) (*models.CollectorDailySummary, error) {
	query := `
		SELECT id, collector_id, summary_date, total_collections,
			total_liters_collected, total_liters_received,
			total_variance_liters, total_penalty_amount, penalty_status, updated_at
		FROM collector_daily_summaries
		WHERE collector_id = $1 AND summary_date = $2
	`

	s := &models.CollectorDailySummary{}
	err := r.DB.QueryRow(ctx, query, collectorID, date).Scan(
		&s.ID, &s.CollectorID, &s.SummaryDate, &s.TotalCollections,
		&s.TotalLitersCollected, &s.TotalLitersReceived,
		&s.TotalVarianceLiters, &s.TotalPenaltyAmount, &s.PenaltyStatus, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByPeriod returns a collector's summaries inside a settlement period.
func (r *CollectorSummaryRepository) ListByPeriod(ctx context.Context, collectorID int, from, to time.Time) ([]*models.CollectorDailySummary, error) {
	query := `
		SELECT id, collector_id, summary_date, total_collections,
			total_liters_collected, total_liters_received,
			total_variance_liters, total_penalty_amount, penalty_status, updated_at
		FROM collector_daily_summaries
		WHERE collector_id = $1 AND summary_date >= $2 AND summary_date <= $3
		ORDER BY summary_date ASC
	`

	rows, err := r.DB.Query(ctx, query, collectorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.CollectorDailySummary
	for rows.Next() {
		s := &models.CollectorDailySummary{}
		err := rows.Scan(
			&s.ID, &s.CollectorID, &s.SummaryDate, &s.TotalCollections,
			&s.TotalLitersCollected, &s.TotalLitersReceived,
			&s.TotalVarianceLiters, &s.TotalPenaltyAmount, &s.PenaltyStatus, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
