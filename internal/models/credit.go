package models

import "time"

// CreditProfile is the revolving credit account for one farmer, created when
// the farmer is approved. It is mutated only through CreditTransaction
// application; profiles are never deleted, only zeroed.
//
// Invariant: CurrentBalance = TotalCreditUsed - TotalRepaid, and
// 0 <= CurrentBalance <= CreditLimit.
type CreditProfile struct {
	ID                int        `json:"id"`
	FarmerID          int        `json:"farmer_id"`
	Tier              CreditTier `json:"tier"`
	CreditLimit       float64    `json:"credit_limit"`
	CurrentBalance    float64    `json:"current_balance"`    // amount currently owed
	TotalCreditUsed   float64    `json:"total_credit_used"`  // lifetime draws
	TotalRepaid       float64    `json:"total_repaid"`       // lifetime repayments
	PendingDeductions float64    `json:"pending_deductions"` // reserved against future payouts
	UpdatedAt         time.Time  `json:"updated_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Headroom returns how much more credit the farmer can draw.
func (p *CreditProfile) Headroom() float64 {
	return p.CreditLimit - p.CurrentBalance
}

// CreditTransactionType is the business reason for a ledger entry.
type CreditTransactionType string

const (
	CreditTxDraw       CreditTransactionType = "DRAW"       // agrovet purchase disbursed on credit
	CreditTxRepayment  CreditTransactionType = "REPAYMENT"  // repayment (cash, payout deduction, online)
	CreditTxAdjustment CreditTransactionType = "ADJUSTMENT" // manual correction
)

// CreditTransaction is one row in a farmer's append-only credit ledger.
// Immutable once written. Amount is signed: positive increases the balance
// owed, negative decreases it. BalanceAfter snapshots the balance so the
// ledger can be replayed and verified.
type CreditTransaction struct {
	ID            int                   `json:"id"`
	FarmerID      int                   `json:"farmer_id"`
	Type          CreditTransactionType `json:"type"`
	Amount        float64               `json:"amount"`
	BalanceAfter  float64               `json:"balance_after"`
	ReferenceType string                `json:"reference_type"` // 'credit_request', 'collection', 'online_repayment'
	ReferenceID   *int                  `json:"reference_id"`
	Notes         string                `json:"notes"`
	CreatedAt     time.Time             `json:"created_at"`
}

// CreditRequestStatus is the state of a farmer's request to draw credit.
// PENDING is the only non-terminal state.
type CreditRequestStatus string

const (
	CreditRequestPending   CreditRequestStatus = "PENDING"
	CreditRequestDisbursed CreditRequestStatus = "DISBURSED"
	CreditRequestRejected  CreditRequestStatus = "REJECTED"
)

// CreditRequest is a farmer's request to draw down credit against a packaged
// agrovet product.
type CreditRequest struct {
	ID          int                 `json:"id"`
	FarmerID    int                 `json:"farmer_id"`
	PackagingID int                 `json:"packaging_id"`
	Quantity    int                 `json:"quantity"`
	UnitPrice   float64             `json:"unit_price"`
	TotalAmount float64             `json:"total_amount"`
	Status      CreditRequestStatus `json:"status"`
	Notes       string              `json:"notes"`
	// ProcessedByUserID is the admin who approved or rejected the request.
	// Nil on auto-approved requests, the system decided those.
	ProcessedByUserID *int       `json:"processed_by_user_id,omitempty"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type CreateCreditRequestRequest struct {
	FarmerID    int     `json:"farmer_id" validate:"required"`
	PackagingID int     `json:"packaging_id" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required"`
	UnitPrice   float64 `json:"unit_price" validate:"required"`
	Notes       string  `json:"notes"`
}

// RequestOutcome reports what happened to one request during a bulk
// auto-approve sweep.
type RequestOutcome struct {
	RequestID int    `json:"request_id"`
	Status    string `json:"status"` // 'disbursed' or reason it stayed pending
	Error     string `json:"error,omitempty"`
}

// AutoApproveResult is the per-request breakdown returned when the
// auto-approve flag is switched on with requests still pending.
type AutoApproveResult struct {
	Processed int              `json:"processed"`
	Disbursed int              `json:"disbursed"`
	Failed    int              `json:"failed"`
	Outcomes  []RequestOutcome `json:"outcomes"`
}
