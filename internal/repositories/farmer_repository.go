package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FarmerRepository struct {
	DB *pgxpool.Pool
}

func NewFarmerRepository(db *pgxpool.Pool) *FarmerRepository {
	return &FarmerRepository{DB: db}
}

func (r *FarmerRepository) Create(ctx context.Context, req *models.RegisterFarmerRequest) (*models.Farmer, error) {
	tier := req.Tier
	if tier == "" {
		tier = models.TierBronze
	}

	query := `
		INSERT INTO farmers (name, phone, national_id, location, tier)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	farmer := &models.Farmer{
		Name:       req.Name,
		Phone:      req.Phone,
		NationalID: req.NationalID,
		Location:   req.Location,
		Tier:       tier,
		Status:     models.FarmerStatusPending,
	}
	err := r.DB.QueryRow(ctx, query,
		req.Name, req.Phone, req.NationalID, req.Location, tier,
	).Scan(&farmer.ID, &farmer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create farmer: %w", err)
	}
	return farmer, nil
}

func (r *FarmerRepository) Get(ctx context.Context, id int) (*models.Farmer, error) {
	query := `
		SELECT id, name, phone, national_id, COALESCE(location, '') as location,
			tier, status, approved_by_user_id, approved_at, created_at
		FROM farmers
		WHERE id = $1
	`

	f := &models.Farmer{}
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Phone, &f.NationalID, &f.Location,
		&f.Tier, &f.Status, &f.ApprovedByUserID, &f.ApprovedAt, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// SetStatus transitions a farmer's onboarding status. Only PENDING farmers
// can move; returns the number of rows changed so the caller can detect a
// lost race.
func (r *FarmerRepository) SetStatus(ctx context.Context, id int, status models.FarmerStatus, approverID int, approvedAt time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE farmers
		SET status = $1, approved_by_user_id = $2, approved_at = $3
		WHERE id = $4 AND status = 'PENDING'
	`, status, approverID, approvedAt, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *FarmerRepository) List(ctx context.Context, status models.FarmerStatus) ([]*models.Farmer, error) {
	query := `
		SELECT id, name, phone, national_id, COALESCE(location, '') as location,
			tier, status, approved_by_user_id, approved_at, created_at
		FROM farmers
	`
	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY name"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var farmers []*models.Farmer
	for rows.Next() {
		f := &models.Farmer{}
		err := rows.Scan(
			&f.ID, &f.Name, &f.Phone, &f.NationalID, &f.Location,
			&f.Tier, &f.Status, &f.ApprovedByUserID, &f.ApprovedAt, &f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		farmers = append(farmers, f)
	}
	return farmers, nil
}
