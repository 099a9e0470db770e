package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
	"dairy-backend/internal/variance"
)

type collectorPaymentStore interface {
	Create(ctx context.Context, p *models.CollectorPayment, createdAt time.Time) (*models.CollectorPayment, error)
	Get(ctx context.Context, id int) (*models.CollectorPayment, error)
	ListByCollector(ctx context.Context, collectorID int) ([]*models.CollectorPayment, error)
}

// CollectorPaymentService builds a collector's period settlement from the
// daily summaries: volume earnings at the configured rate per liter, minus
// the penalties accrued in the period. Earnings never go negative; excess
// penalties are absorbed, not carried forward.
type CollectorPaymentService struct {
	payments  collectorPaymentStore
	summaries summaryStore
	settings  settingStore

	defaultRatePerLiter float64
	now                 func() time.Time
}

func NewCollectorPaymentService(payments collectorPaymentStore, summaries summaryStore, settings settingStore, ratePerLiter float64) *CollectorPaymentService {
	return &CollectorPaymentService{
		payments:            payments,
		summaries:           summaries,
		settings:            settings,
		defaultRatePerLiter: ratePerLiter,
		now:                 timeutil.Now,
	}
}

// GeneratePayment settles a collector for the given period. The rate per
// liter is read fresh from settings at generation time and frozen into the
// payment row. Received liters are what the collector is paid for; field
// readings only matter for variance.
func (s *CollectorPaymentService) GeneratePayment(ctx context.Context, collectorID int, from, to time.Time) (*models.CollectorPayment, error) {
	// Period bounds and summary dates live in DATE columns; canonicalize to
	// the EAT calendar day so the filter is inclusive of both endpoints.
	from, to = timeutil.DateOf(from), timeutil.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period end before period start", ErrValidation)
	}

	summaries, err := s.summaries.ListByPeriod(ctx, collectorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries for collector %d: %w", collectorID, err)
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: collector %d has no summaries in period", ErrValidation, collectorID)
	}

	rate := floatSetting(ctx, s.settings, models.SettingCollectorRatePerLiter, s.defaultRatePerLiter)

	payment := &models.CollectorPayment{
		CollectorID:  collectorID,
		PeriodStart:  from,
		PeriodEnd:    to,
		RatePerLiter: rate,
		Status:       models.CollectorPaymentPending,
	}
	for _, sum := range summaries {
		payment.TotalCollections += sum.TotalCollections
		payment.TotalLiters += sum.TotalLitersReceived
		payment.TotalPenalties += sum.TotalPenaltyAmount
	}
	payment.TotalLiters = variance.Round2(payment.TotalLiters)
	payment.TotalPenalties = variance.Round2(payment.TotalPenalties)
	payment.TotalEarnings = variance.Round2(payment.TotalLiters*rate - payment.TotalPenalties)
	if payment.TotalEarnings < 0 {
		payment.TotalEarnings = 0
	}

	created, err := s.payments.Create(ctx, payment, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create collector payment: %w", err)
	}
	log.Printf("[CollectorPayment] Collector %d: %.2fL at %.2f/L minus %.2f penalties = %.2f", collectorID, created.TotalLiters, rate, created.TotalPenalties, created.TotalEarnings)
	return created, nil
}

func (s *CollectorPaymentService) Get(ctx context.Context, id int) (*models.CollectorPayment, error) {
	return s.payments.Get(ctx, id)
}

func (s *CollectorPaymentService) ListByCollector(ctx context.Context, collectorID int) ([]*models.CollectorPayment, error) {
	return s.payments.ListByCollector(ctx, collectorID)
}
