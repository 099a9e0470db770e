package models

import "time"

// OnlineRepaymentStatus tracks a Razorpay repayment order.
type OnlineRepaymentStatus string

const (
	OnlineRepaymentCreated OnlineRepaymentStatus = "CREATED"
	// PROCESSING means a capture webhook has claimed the order but the
	// ledger entry is not confirmed yet. Orders stuck here need review.
	OnlineRepaymentProcessing OnlineRepaymentStatus = "PROCESSING"
	OnlineRepaymentCaptured   OnlineRepaymentStatus = "CAPTURED"
	OnlineRepaymentFailed     OnlineRepaymentStatus = "FAILED"
)

// OnlineRepayment is a farmer's online credit repayment via Razorpay.
// A captured repayment produces exactly one REPAYMENT credit transaction.
type OnlineRepayment struct {
	ID                int                   `json:"id"`
	FarmerID          int                   `json:"farmer_id"`
	OrderID           string                `json:"order_id"`
	PaymentID         string                `json:"payment_id"`
	Amount            float64               `json:"amount"`
	Status            OnlineRepaymentStatus `json:"status"`
	CreditTxID        *int                  `json:"credit_tx_id,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	CapturedAt        *time.Time            `json:"captured_at,omitempty"`
}
