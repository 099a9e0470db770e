package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"dairy-backend/internal/config"
	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
)

type farmerStore interface {
	Create(ctx context.Context, req *models.RegisterFarmerRequest) (*models.Farmer, error)
	Get(ctx context.Context, id int) (*models.Farmer, error)
	SetStatus(ctx context.Context, id int, status models.FarmerStatus, approverID int, approvedAt time.Time) (int64, error)
	List(ctx context.Context, status models.FarmerStatus) ([]*models.Farmer, error)
}

// FarmerService handles farmer onboarding. Approving a farmer opens their
// revolving credit profile with the limit for their tier.
type FarmerService struct {
	farmers  farmerStore
	profiles creditProfileStore
	cfg      *config.Config
	now      func() time.Time
}

func NewFarmerService(farmers farmerStore, profiles creditProfileStore, cfg *config.Config) *FarmerService {
	return &FarmerService{farmers: farmers, profiles: profiles, cfg: cfg, now: timeutil.Now}
}

func (s *FarmerService) Register(ctx context.Context, req *models.RegisterFarmerRequest) (*models.Farmer, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	farmer, err := s.farmers.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to register farmer: %w", err)
	}
	return farmer, nil
}

func (s *FarmerService) Get(ctx context.Context, id int) (*models.Farmer, error) {
	return s.farmers.Get(ctx, id)
}

func (s *FarmerService) List(ctx context.Context, status models.FarmerStatus) ([]*models.Farmer, error) {
	return s.farmers.List(ctx, status)
}

// Approve moves a pending farmer to APPROVED and opens their credit profile.
// Only pending farmers can be approved; the status update is predicated on
// PENDING so two concurrent approvals cannot open two profiles.
func (s *FarmerService) Approve(ctx context.Context, farmerID, approverID int, tier models.CreditTier) (*models.Farmer, error) {
	if tier == "" {
		tier = models.TierBronze
	}

	n, err := s.farmers.SetStatus(ctx, farmerID, models.FarmerStatusApproved, approverID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to approve farmer %d: %w", farmerID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: farmer %d", ErrNotPending, farmerID)
	}

	limit := s.cfg.TierLimit(string(tier))
	if _, err := s.profiles.Create(ctx, farmerID, tier, limit); err != nil {
		return nil, fmt.Errorf("farmer %d approved but credit profile creation failed: %w", farmerID, err)
	}
	log.Printf("[FarmerService] Farmer %d approved with %s tier, credit limit %.2f", farmerID, tier, limit)

	return s.farmers.Get(ctx, farmerID)
}

// Reject moves a pending farmer to REJECTED. No credit profile is created.
func (s *FarmerService) Reject(ctx context.Context, farmerID, approverID int) (*models.Farmer, error) {
	n, err := s.farmers.SetStatus(ctx, farmerID, models.FarmerStatusRejected, approverID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to reject farmer %d: %w", farmerID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: farmer %d", ErrNotPending, farmerID)
	}
	return s.farmers.Get(ctx, farmerID)
}
