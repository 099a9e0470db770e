package services

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
)

type collectionStore interface {
	Create(ctx context.Context, farmerID, collectorID int, liters float64, date time.Time) (*models.Collection, error)
	Get(ctx context.Context, id int) (*models.Collection, error)
	SetApprovedForPayment(ctx context.Context, id int) error
	ListByCollectorDate(ctx context.Context, collectorID int, date time.Time) ([]*models.Collection, error)
}

type farmerReader interface {
	Get(ctx context.Context, id int) (*models.Farmer, error)
}

// CollectionService handles collector field readings: intake and the office
// step that marks a reading payment-eligible.
type CollectionService struct {
	collections collectionStore
	farmers     farmerReader
}

func NewCollectionService(collections collectionStore, farmers farmerReader) *CollectionService {
	return &CollectionService{collections: collections, farmers: farmers}
}

// Record stores a collector's field reading. The collection date defaults to
// today in the cooperative's local calendar when the collector omits it.
func (s *CollectionService) Record(ctx context.Context, req *models.CreateCollectionRequest, collectorID int) (*models.Collection, error) {
	if req.LitersCollected <= 0 {
		return nil, fmt.Errorf("%w: liters_collected must be positive", ErrValidation)
	}

	farmer, err := s.farmers.Get(ctx, req.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("%w: farmer %d not found", ErrValidation, req.FarmerID)
	}
	if farmer.Status != models.FarmerStatusApproved {
		return nil, fmt.Errorf("%w: farmer %d is not approved", ErrValidation, req.FarmerID)
	}

	// Collection dates live in a DATE column, so the bound value must carry
	// the calendar day in its UTC fields. DateOf produces exactly that.
	date := timeutil.DateOf(timeutil.Now())
	if req.CollectionDate != "" {
		parsed, err := time.ParseInLocation(timeutil.DateLayout, req.CollectionDate, timeutil.EAT)
		if err != nil {
			return nil, fmt.Errorf("%w: collection_date must be YYYY-MM-DD", ErrValidation)
		}
		date = timeutil.DateOf(parsed)
	}

	collection, err := s.collections.Create(ctx, req.FarmerID, collectorID, req.LitersCollected, date)
	if err != nil {
		return nil, fmt.Errorf("failed to record collection: %w", err)
	}
	return collection, nil
}

func (s *CollectionService) Get(ctx context.Context, id int) (*models.Collection, error) {
	collection, err := s.collections.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %d", ErrCollectionNotFound, id)
	}
	return collection, nil
}

// ApproveForPayment marks a reading eligible for office approval and payment
// selection. Idempotent: re-marking an eligible collection is a no-op.
func (s *CollectionService) ApproveForPayment(ctx context.Context, id int) (*models.Collection, error) {
	collection, err := s.collections.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %d", ErrCollectionNotFound, id)
	}
	if collection.ApprovedForPayment {
		return collection, nil
	}
	if err := s.collections.SetApprovedForPayment(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to approve collection %d for payment: %w", id, err)
	}
	collection.ApprovedForPayment = true
	return collection, nil
}

func (s *CollectionService) ListByCollectorDate(ctx context.Context, collectorID int, date time.Time) ([]*models.Collection, error) {
	return s.collections.ListByCollectorDate(ctx, collectorID, timeutil.DateOf(date))
}
