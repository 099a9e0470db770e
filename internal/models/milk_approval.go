package models

import "time"

// PenaltyStatus mirrors FeeStatus for the penalty side of an approval.
type PenaltyStatus string

const (
	PenaltyStatusPending PenaltyStatus = "PENDING"
	PenaltyStatusPaid    PenaltyStatus = "PAID"
)

// MilkApproval is the office confirmation of received volume for one
// collection. Created once; immutable except PenaltyStatus.
type MilkApproval struct {
	ID                 int           `json:"id"`
	CollectionID       int           `json:"collection_id"`
	CollectorID        int           `json:"collector_id"`
	StaffID            int           `json:"staff_id"`
	ReceivedLiters     float64       `json:"received_liters"`
	VarianceLiters     float64       `json:"variance_liters"`
	VariancePercentage float64       `json:"variance_percentage"`
	VarianceType       string        `json:"variance_type"` // 'SHORTAGE', 'EXCESS', 'NONE'
	PenaltyAmount      float64       `json:"penalty_amount"`
	PenaltyStatus      PenaltyStatus `json:"penalty_status"`
	ApprovedAt         time.Time     `json:"approved_at"`
}

type RecordApprovalRequest struct {
	CollectionID   int     `json:"collection_id" validate:"required"`
	ReceivedLiters float64 `json:"received_liters" validate:"required"`
}

// CollectorDailySummary aggregates a collector's approvals for one calendar
// date. Derived data: recomputed from MilkApproval rows (last-write-wins),
// never updated incrementally.
type CollectorDailySummary struct {
	ID                   int           `json:"id"`
	CollectorID          int           `json:"collector_id"`
	SummaryDate          time.Time     `json:"summary_date"`
	TotalCollections     int           `json:"total_collections"`
	TotalLitersCollected float64       `json:"total_liters_collected"`
	TotalLitersReceived  float64       `json:"total_liters_received"`
	TotalVarianceLiters  float64       `json:"total_variance_liters"`
	TotalPenaltyAmount   float64       `json:"total_penalty_amount"`
	PenaltyStatus        PenaltyStatus `json:"penalty_status"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// CollectorPaymentStatus is the settlement state of a collector payment.
type CollectorPaymentStatus string

const (
	CollectorPaymentPending CollectorPaymentStatus = "PENDING"
	CollectorPaymentPaid    CollectorPaymentStatus = "PAID"
)

// CollectorPayment is a period settlement for a collector, netting penalty
// deductions out of volume earnings.
type CollectorPayment struct {
	ID               int                    `json:"id"`
	CollectorID      int                    `json:"collector_id"`
	PeriodStart      time.Time              `json:"period_start"`
	PeriodEnd        time.Time              `json:"period_end"`
	TotalCollections int                    `json:"total_collections"`
	TotalLiters      float64                `json:"total_liters"`
	RatePerLiter     float64                `json:"rate_per_liter"`
	TotalPenalties   float64                `json:"total_penalties"`
	TotalEarnings    float64                `json:"total_earnings"`
	Status           CollectorPaymentStatus `json:"status"`
	CreatedAt        time.Time              `json:"created_at"`
}
