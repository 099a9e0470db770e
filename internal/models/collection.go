package models

import "time"

// FeeStatus tracks whether a collection has been settled in a collector
// payment run.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "PENDING"
	FeeStatusPaid    FeeStatus = "PAID"
)

// Collection is a collector's field reading for one farmer delivery.
// FeeStatus is mutated only by the reconciliation engine.
type Collection struct {
	ID                 int       `json:"id"`
	FarmerID           int       `json:"farmer_id"`
	CollectorID        int       `json:"collector_id"`
	LitersCollected    float64   `json:"liters_collected"`
	CollectionDate     time.Time `json:"collection_date"`
	ApprovedForPayment bool      `json:"approved_for_payment"`
	FeeStatus          FeeStatus `json:"fee_status"`
	CreatedAt          time.Time `json:"created_at"`
}

type CreateCollectionRequest struct {
	FarmerID        int     `json:"farmer_id" validate:"required"`
	LitersCollected float64 `json:"liters_collected" validate:"required"`
	CollectionDate  string  `json:"collection_date"` // YYYY-MM-DD, defaults to today
}
