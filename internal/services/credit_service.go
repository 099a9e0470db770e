package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"dairy-backend/internal/metrics"
	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
	"dairy-backend/internal/variance"
)

type creditProfileStore interface {
	Create(ctx context.Context, farmerID int, tier models.CreditTier, creditLimit float64) (*models.CreditProfile, error)
	GetByFarmerID(ctx context.Context, farmerID int) (*models.CreditProfile, error)
	ApplyBalance(ctx context.Context, farmerID int, expectedBalance, newBalance, newTotalUsed, newTotalRepaid float64) (bool, error)
	List(ctx context.Context) ([]*models.CreditProfile, error)
}

type creditLedgerStore interface {
	Create(ctx context.Context, tx *models.CreditTransaction, createdAt time.Time) (*models.CreditTransaction, error)
	ListByFarmer(ctx context.Context, farmerID int) ([]*models.CreditTransaction, error)
}

type creditRequestStore interface {
	Create(ctx context.Context, req *models.CreateCreditRequestRequest, totalAmount float64) (*models.CreditRequest, error)
	Get(ctx context.Context, id int) (*models.CreditRequest, error)
	ListPending(ctx context.Context) ([]*models.CreditRequest, error)
	Settle(ctx context.Context, id int, status models.CreditRequestStatus, notes string, processedBy *int, processedAt time.Time) (int64, error)
}

// CreditService owns the revolving credit engine: the request state machine,
// the balance writes on credit profiles and the append-only transaction
// ledger. Balance writes are guarded by compare-and-swap on the current
// balance, so two concurrent disbursements can never double-draw.
type CreditService struct {
	profiles creditProfileStore
	ledger   creditLedgerStore
	requests creditRequestStore
	settings settingStore
	now      func() time.Time
}

func NewCreditService(profiles creditProfileStore, ledger creditLedgerStore, requests creditRequestStore, settings settingStore) *CreditService {
	return &CreditService{
		profiles: profiles,
		ledger:   ledger,
		requests: requests,
		settings: settings,
		now:      timeutil.Now,
	}
}

// AutoApproveEnabled reads the auto-approve flag from the settings store.
// Never cached: every decision point sees the latest value.
func (s *CreditService) AutoApproveEnabled(ctx context.Context) bool {
	return boolSetting(ctx, s.settings, models.SettingCreditAutoApprove, false)
}

// CreateRequest validates and records a new credit request. If the
// auto-approve flag is on at creation time the request is disbursed
// synchronously; an auto-approval that fails (for example on insufficient
// headroom) leaves the request pending for manual review rather than
// rejecting it.
func (s *CreditService) CreateRequest(ctx context.Context, req *models.CreateCreditRequestRequest) (*models.CreditRequest, error) {
	if req.FarmerID <= 0 {
		return nil, fmt.Errorf("%w: farmer_id is required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if req.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit_price cannot be negative", ErrValidation)
	}

	// The farmer must have an approved credit profile before requesting.
	if _, err := s.profiles.GetByFarmerID(ctx, req.FarmerID); err != nil {
		return nil, fmt.Errorf("%w: farmer %d has no credit profile", ErrValidation, req.FarmerID)
	}

	total := variance.Round2(float64(req.Quantity) * req.UnitPrice)
	created, err := s.requests.Create(ctx, req, total)
	if err != nil {
		return nil, fmt.Errorf("failed to create credit request: %w", err)
	}

	if s.AutoApproveEnabled(ctx) {
		approved, err := s.Approve(ctx, created.ID, nil)
		if err != nil {
			// Creation succeeded; the request simply stays pending.
			log.Printf("[CreditService] Auto-approve of request %d failed, left pending: %v", created.ID, err)
			return created, nil
		}
		return approved, nil
	}
	return created, nil
}

func (s *CreditService) GetRequest(ctx context.Context, id int) (*models.CreditRequest, error) {
	return s.requests.Get(ctx, id)
}

func (s *CreditService) ListPendingRequests(ctx context.Context) ([]*models.CreditRequest, error) {
	return s.requests.ListPending(ctx)
}

// Approve disburses a pending request: it checks headroom against the
// farmer's credit limit, moves the balance with a compare-and-swap and
// appends a DRAW entry to the ledger before settling the request.
// approverID is the admin making the call; nil means the system approved
// automatically.
//
// The write order matters. The profile swap is the commit point; if the
// ledger append or the request settle fails after it, the error is reported
// as a ledger inconsistency and nothing is retried automatically.
func (s *CreditService) Approve(ctx context.Context, requestID int, approverID *int) (*models.CreditRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("credit request %d not found: %w", requestID, err)
	}
	if req.Status != models.CreditRequestPending {
		return nil, fmt.Errorf("%w: request %d is %s", ErrNotPending, requestID, req.Status)
	}

	profile, err := s.profiles.GetByFarmerID(ctx, req.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("credit profile for farmer %d not found: %w", req.FarmerID, err)
	}
	if req.TotalAmount > profile.Headroom() {
		return nil, fmt.Errorf("%w: request %.2f exceeds headroom %.2f", ErrInsufficientCredit, req.TotalAmount, profile.Headroom())
	}

	newBalance := variance.Round2(profile.CurrentBalance + req.TotalAmount)
	newUsed := variance.Round2(profile.TotalCreditUsed + req.TotalAmount)
	ok, err := s.profiles.ApplyBalance(ctx, req.FarmerID, profile.CurrentBalance, newBalance, newUsed, profile.TotalRepaid)
	if err != nil {
		return nil, fmt.Errorf("failed to update credit balance for farmer %d: %w", req.FarmerID, err)
	}
	if !ok {
		metrics.CreditConflicts.Inc()
		return nil, fmt.Errorf("%w: farmer %d", ErrConcurrentModification, req.FarmerID)
	}

	now := s.now()
	refID := req.ID
	if _, err := s.ledger.Create(ctx, &models.CreditTransaction{
		FarmerID:      req.FarmerID,
		Type:          models.CreditTxDraw,
		Amount:        req.TotalAmount,
		BalanceAfter:  newBalance,
		ReferenceType: "credit_request",
		ReferenceID:   &refID,
		Notes:         req.Notes,
	}, now); err != nil {
		return nil, fmt.Errorf("%w: balance moved but ledger append failed for request %d: %v", ErrLedgerInconsistency, req.ID, err)
	}

	n, err := s.requests.Settle(ctx, req.ID, models.CreditRequestDisbursed, req.Notes, approverID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: balance moved but request %d not settled: %v", ErrLedgerInconsistency, req.ID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: request %d settled concurrently after disbursement", ErrLedgerInconsistency, req.ID)
	}

	metrics.CreditDisbursements.Inc()
	log.Printf("[CreditService] Disbursed request %d: farmer %d drew %.2f, balance now %.2f", req.ID, req.FarmerID, req.TotalAmount, newBalance)

	req.Status = models.CreditRequestDisbursed
	req.ProcessedByUserID = approverID
	req.ProcessedAt = &now
	return req, nil
}

// Reject moves a pending request to REJECTED. No balance is touched.
func (s *CreditService) Reject(ctx context.Context, requestID int, approverID *int, reason string) (*models.CreditRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("credit request %d not found: %w", requestID, err)
	}
	if req.Status != models.CreditRequestPending {
		return nil, fmt.Errorf("%w: request %d is %s", ErrNotPending, requestID, req.Status)
	}

	now := s.now()
	n, err := s.requests.Settle(ctx, requestID, models.CreditRequestRejected, reason, approverID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reject request %d: %w", requestID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: request %d settled concurrently", ErrNotPending, requestID)
	}

	req.Status = models.CreditRequestRejected
	req.Notes = reason
	req.ProcessedByUserID = approverID
	req.ProcessedAt = &now
	return req, nil
}

// ApplyRepayment reduces a farmer's balance and appends a REPAYMENT entry.
// refType/refID tie the entry to its source (cash receipt, payout deduction
// or online payment order).
func (s *CreditService) ApplyRepayment(ctx context.Context, farmerID int, amount float64, refType string, refID *int, notes string) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: repayment amount must be positive", ErrValidation)
	}

	profile, err := s.profiles.GetByFarmerID(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("credit profile for farmer %d not found: %w", farmerID, err)
	}
	if amount > profile.CurrentBalance {
		return nil, fmt.Errorf("%w: repayment %.2f exceeds balance %.2f", ErrValidation, amount, profile.CurrentBalance)
	}

	newBalance := variance.Round2(profile.CurrentBalance - amount)
	newRepaid := variance.Round2(profile.TotalRepaid + amount)
	ok, err := s.profiles.ApplyBalance(ctx, farmerID, profile.CurrentBalance, newBalance, profile.TotalCreditUsed, newRepaid)
	if err != nil {
		return nil, fmt.Errorf("failed to update credit balance for farmer %d: %w", farmerID, err)
	}
	if !ok {
		metrics.CreditConflicts.Inc()
		return nil, fmt.Errorf("%w: farmer %d", ErrConcurrentModification, farmerID)
	}

	tx, err := s.ledger.Create(ctx, &models.CreditTransaction{
		FarmerID:      farmerID,
		Type:          models.CreditTxRepayment,
		Amount:        -amount,
		BalanceAfter:  newBalance,
		ReferenceType: refType,
		ReferenceID:   refID,
		Notes:         notes,
	}, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: balance moved but ledger append failed for farmer %d: %v", ErrLedgerInconsistency, farmerID, err)
	}

	metrics.CreditRepayments.Inc()
	log.Printf("[CreditService] Farmer %d repaid %.2f (%s), balance now %.2f", farmerID, amount, refType, newBalance)
	return tx, nil
}

func (s *CreditService) GetProfile(ctx context.Context, farmerID int) (*models.CreditProfile, error) {
	return s.profiles.GetByFarmerID(ctx, farmerID)
}

func (s *CreditService) ListProfiles(ctx context.Context) ([]*models.CreditProfile, error) {
	return s.profiles.List(ctx)
}

func (s *CreditService) ListTransactions(ctx context.Context, farmerID int) ([]*models.CreditTransaction, error) {
	return s.ledger.ListByFarmer(ctx, farmerID)
}

// SetAutoApprove flips the auto-approve flag. Turning it on sweeps the
// pending backlog immediately; each request is approved independently, so
// one failure never blocks the rest. Requests that cannot be disbursed stay
// pending and are reported in the breakdown.
func (s *CreditService) SetAutoApprove(ctx context.Context, enabled bool, userID int) (*models.AutoApproveResult, error) {
	value := "false"
	if enabled {
		value = "true"
	}
	if err := s.settings.Upsert(ctx, models.SettingCreditAutoApprove, value, "Automatically disburse new credit requests", userID); err != nil {
		return nil, fmt.Errorf("failed to update auto-approve setting: %w", err)
	}
	if !enabled {
		return &models.AutoApproveResult{}, nil
	}

	pending, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	result := &models.AutoApproveResult{Processed: len(pending)}
	for _, req := range pending {
		// The sweep runs on the toggling admin's authority, so the backlog
		// settles under their id rather than as a system decision.
		if _, err := s.Approve(ctx, req.ID, &userID); err != nil {
			result.Failed++
			result.Outcomes = append(result.Outcomes, models.RequestOutcome{
				RequestID: req.ID,
				Status:    string(models.CreditRequestPending),
				Error:     err.Error(),
			})
			log.Printf("[CreditService] Auto-approve sweep: request %d left pending: %v", req.ID, err)
			continue
		}
		result.Disbursed++
		result.Outcomes = append(result.Outcomes, models.RequestOutcome{
			RequestID: req.ID,
			Status:    string(models.CreditRequestDisbursed),
		})
	}
	log.Printf("[CreditService] Auto-approve sweep: %d processed, %d disbursed, %d left pending", result.Processed, result.Disbursed, result.Failed)
	return result, nil
}

// AuditLedger replays a farmer's transaction history and verifies that each
// balance snapshot follows from the previous one and that the final snapshot
// matches the profile. Returns ErrLedgerInconsistency on any mismatch.
func (s *CreditService) AuditLedger(ctx context.Context, farmerID int) error {
	profile, err := s.profiles.GetByFarmerID(ctx, farmerID)
	if err != nil {
		return fmt.Errorf("credit profile for farmer %d not found: %w", farmerID, err)
	}
	txs, err := s.ledger.ListByFarmer(ctx, farmerID)
	if err != nil {
		return fmt.Errorf("failed to list transactions for farmer %d: %w", farmerID, err)
	}

	const epsilon = 0.005
	var running float64
	for _, tx := range txs {
		running = variance.Round2(running + tx.Amount)
		if math.Abs(running-tx.BalanceAfter) > epsilon {
			return fmt.Errorf("%w: transaction %d snapshot %.2f, replay gives %.2f", ErrLedgerInconsistency, tx.ID, tx.BalanceAfter, running)
		}
	}
	if math.Abs(running-profile.CurrentBalance) > epsilon {
		return fmt.Errorf("%w: profile balance %.2f, replay gives %.2f", ErrLedgerInconsistency, profile.CurrentBalance, running)
	}
	return nil
}
