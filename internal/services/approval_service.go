package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"dairy-backend/internal/cache"
	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
	"dairy-backend/internal/variance"
)

type approvalStore interface {
	Create(ctx context.Context, a *models.MilkApproval) (*models.MilkApproval, error)
	GetByCollectionID(ctx context.Context, collectionID int) (*models.MilkApproval, error)
	ListByCollectorDate(ctx context.Context, collectorID int, date time.Time) ([]*models.MilkApproval, error)
}

type summaryStore interface {
	Upsert(ctx context.Context, s *models.CollectorDailySummary) error
	Get(ctx context.Context, collectorID int, date time.Time) (*models.CollectorDailySummary, error)
	ListByPeriod(ctx context.Context, collectorID int, from, to time.Time) ([]*models.CollectorDailySummary, error)
}

type collectionReader interface {
	Get(ctx context.Context, id int) (*models.Collection, error)
}

// ApprovalService records the office's confirmation of received volume for a
// collection, computes variance and penalty against the collector's field
// reading, and keeps the per-collector daily summaries in sync.
type ApprovalService struct {
	approvals   approvalStore
	collections collectionReader
	summaries   summaryStore
	settings    settingStore

	// fallbacks when the settings store has no override
	defaultTolerancePct float64
	defaultPenaltyRate  float64

	now func() time.Time
}

func NewApprovalService(approvals approvalStore, collections collectionReader, summaries summaryStore, settings settingStore, tolerancePct, penaltyRate float64) *ApprovalService {
	return &ApprovalService{
		approvals:           approvals,
		collections:         collections,
		summaries:           summaries,
		settings:            settings,
		defaultTolerancePct: tolerancePct,
		defaultPenaltyRate:  penaltyRate,
		now:                 timeutil.Now,
	}
}

// RecordApproval confirms the received volume for a collection. Approvals
// are create-once: a second approval for the same collection is rejected,
// and the stored variance is never recomputed afterwards even if the
// tolerance or penalty rate settings change later.
func (s *ApprovalService) RecordApproval(ctx context.Context, req *models.RecordApprovalRequest, staffID int) (*models.MilkApproval, error) {
	if req.ReceivedLiters < 0 {
		return nil, fmt.Errorf("%w: received_liters cannot be negative", ErrValidation)
	}

	if existing, _ := s.approvals.GetByCollectionID(ctx, req.CollectionID); existing != nil {
		return nil, fmt.Errorf("%w: collection %d", ErrAlreadyApproved, req.CollectionID)
	}

	collection, err := s.collections.Get(ctx, req.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %d", ErrCollectionNotFound, req.CollectionID)
	}
	if !collection.ApprovedForPayment {
		return nil, fmt.Errorf("%w: collection %d is not payment-eligible", ErrCollectionNotFound, req.CollectionID)
	}

	// Tolerance and penalty rate are read fresh so an admin change applies
	// to the next approval without a restart.
	tolerancePct := floatSetting(ctx, s.settings, models.SettingVarianceTolerancePct, s.defaultTolerancePct)
	penaltyRate := floatSetting(ctx, s.settings, models.SettingPenaltyRatePerLiter, s.defaultPenaltyRate)

	res := variance.Compute(collection.LitersCollected, req.ReceivedLiters, tolerancePct, penaltyRate)

	approval, err := s.approvals.Create(ctx, &models.MilkApproval{
		CollectionID:       collection.ID,
		CollectorID:        collection.CollectorID,
		StaffID:            staffID,
		ReceivedLiters:     req.ReceivedLiters,
		VarianceLiters:     res.VarianceLiters,
		VariancePercentage: res.VariancePercentage,
		VarianceType:       string(res.Type),
		PenaltyAmount:      res.PenaltyAmount,
		PenaltyStatus:      models.PenaltyStatusPending,
		ApprovedAt:         s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record approval for collection %d: %w", collection.ID, err)
	}

	if res.Type == variance.TypeShortage && res.PenaltyAmount > 0 {
		log.Printf("[ApprovalService] Collection %d: shortage %.2fL (%.2f%%), penalty %.2f", collection.ID, res.VarianceLiters, res.VariancePercentage, res.PenaltyAmount)
	}

	if err := s.RecomputeDailySummary(ctx, collection.CollectorID, collection.CollectionDate); err != nil {
		// The approval itself is committed; the summary is derived data and
		// will be rebuilt on the next recompute for this collector and date.
		log.Printf("[ApprovalService] Summary recompute failed for collector %d on %s: %v", collection.CollectorID, collection.CollectionDate.In(timeutil.EAT).Format(timeutil.DateLayout), err)
	}
	return approval, nil
}

func (s *ApprovalService) GetByCollectionID(ctx context.Context, collectionID int) (*models.MilkApproval, error) {
	return s.approvals.GetByCollectionID(ctx, collectionID)
}

// RecomputeDailySummary rebuilds a collector's summary row for one date from
// the approval rows. The rebuilt row replaces whatever is stored; summaries
// carry no state of their own, so last write wins by construction.
//
// The date is canonicalized through DateOf before it touches the store or
// the cache, so callers holding any instant within the day hit the same row.
func (s *ApprovalService) RecomputeDailySummary(ctx context.Context, collectorID int, date time.Time) error {
	day := timeutil.DateOf(date)
	cache.InvalidateDailySummary(ctx, collectorID, day)

	approvals, err := s.approvals.ListByCollectorDate(ctx, collectorID, day)
	if err != nil {
		return fmt.Errorf("failed to list approvals for collector %d: %w", collectorID, err)
	}

	summary := &models.CollectorDailySummary{
		CollectorID:   collectorID,
		SummaryDate:   day,
		PenaltyStatus: models.PenaltyStatusPending,
		UpdatedAt:     s.now(),
	}
	allPaid := len(approvals) > 0
	for _, a := range approvals {
		summary.TotalCollections++
		summary.TotalLitersReceived += a.ReceivedLiters
		summary.TotalLitersCollected += a.ReceivedLiters - a.VarianceLiters
		summary.TotalVarianceLiters += a.VarianceLiters
		summary.TotalPenaltyAmount += a.PenaltyAmount
		if a.PenaltyStatus != models.PenaltyStatusPaid {
			allPaid = false
		}
	}
	summary.TotalLitersCollected = variance.Round2(summary.TotalLitersCollected)
	summary.TotalLitersReceived = variance.Round2(summary.TotalLitersReceived)
	summary.TotalVarianceLiters = variance.Round2(summary.TotalVarianceLiters)
	summary.TotalPenaltyAmount = variance.Round2(summary.TotalPenaltyAmount)
	if allPaid {
		summary.PenaltyStatus = models.PenaltyStatusPaid
	}

	if err := s.summaries.Upsert(ctx, summary); err != nil {
		return fmt.Errorf("failed to upsert summary for collector %d: %w", collectorID, err)
	}
	cache.SetDailySummary(ctx, summary)
	return nil
}

// GetDailySummary reads through the cache to the summary store.
func (s *ApprovalService) GetDailySummary(ctx context.Context, collectorID int, date time.Time) (*models.CollectorDailySummary, error) {
	day := timeutil.DateOf(date)
	if summary, ok := cache.GetDailySummary(ctx, collectorID, day); ok {
		return summary, nil
	}
	summary, err := s.summaries.Get(ctx, collectorID, day)
	if err != nil {
		return nil, fmt.Errorf("summary for collector %d not found: %w", collectorID, err)
	}
	cache.SetDailySummary(ctx, summary)
	return summary, nil
}
