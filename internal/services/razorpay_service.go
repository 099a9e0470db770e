package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
)

type onlineRepaymentStore interface {
	Create(ctx context.Context, farmerID int, orderID string, amount float64) (*models.OnlineRepayment, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.OnlineRepayment, error)
	MarkProcessing(ctx context.Context, orderID string) (int64, error)
	MarkCaptured(ctx context.Context, orderID, paymentID string, creditTxID int, capturedAt time.Time) (int64, error)
	MarkFailed(ctx context.Context, orderID string) error
}

// RazorpayService lets a farmer repay credit online. An order is created
// against the farmer's outstanding balance; the capture webhook applies the
// repayment to the credit ledger.
type RazorpayService struct {
	repayments onlineRepaymentStore
	credit     *CreditService
	settings   settingStore

	// fallback credentials from environment, overridable through settings
	envKeyID         string
	envKeySecret     string
	envWebhookSecret string

	now func() time.Time
}

func NewRazorpayService(keyID, keySecret, webhookSecret string, repayments onlineRepaymentStore, credit *CreditService, settings settingStore) *RazorpayService {
	return &RazorpayService{
		repayments:       repayments,
		credit:           credit,
		settings:         settings,
		envKeyID:         keyID,
		envKeySecret:     keySecret,
		envWebhookSecret: webhookSecret,
		now:              timeutil.Now,
	}
}

// getCredentials returns the Razorpay credentials, settings first with env
// fallback, so keys can be rotated without a restart.
func (s *RazorpayService) getCredentials(ctx context.Context) (keyID, keySecret, webhookSecret string) {
	keyID, keySecret, webhookSecret = s.envKeyID, s.envKeySecret, s.envWebhookSecret
	if setting, err := s.settings.Get(ctx, models.SettingRazorpayKeyID); err == nil && setting.SettingValue != "" {
		keyID = setting.SettingValue
	}
	if setting, err := s.settings.Get(ctx, models.SettingRazorpayKeySecret); err == nil && setting.SettingValue != "" {
		keySecret = setting.SettingValue
	}
	if setting, err := s.settings.Get(ctx, models.SettingRazorpayWebhookSecret); err == nil && setting.SettingValue != "" {
		webhookSecret = setting.SettingValue
	}
	return keyID, keySecret, webhookSecret
}

func (s *RazorpayService) getClient(ctx context.Context) *razorpay.Client {
	keyID, keySecret, _ := s.getCredentials(ctx)
	if keyID == "" || keySecret == "" {
		return nil
	}
	return razorpay.NewClient(keyID, keySecret)
}

// CreateRepaymentOrder opens a payment order for part of a farmer's
// outstanding balance. The amount is validated against the balance up front
// so a farmer cannot overpay into a negative balance at capture time.
func (s *RazorpayService) CreateRepaymentOrder(ctx context.Context, farmerID int, amount float64) (*models.OnlineRepayment, string, error) {
	if amount <= 0 {
		return nil, "", fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	profile, err := s.credit.GetProfile(ctx, farmerID)
	if err != nil {
		return nil, "", fmt.Errorf("credit profile for farmer %d not found: %w", farmerID, err)
	}
	if amount > profile.CurrentBalance {
		return nil, "", fmt.Errorf("%w: repayment %.2f exceeds balance %.2f", ErrValidation, amount, profile.CurrentBalance)
	}

	client := s.getClient(ctx)
	if client == nil {
		return nil, "", fmt.Errorf("razorpay client not configured")
	}

	// Razorpay amounts are in currency subunits.
	orderData := map[string]interface{}{
		"amount":   int(amount * 100),
		"currency": "KES",
		"receipt":  fmt.Sprintf("repay_%d_%d", farmerID, s.now().Unix()),
		"notes": map[string]interface{}{
			"farmer_id": farmerID,
			"purpose":   "credit_repayment",
		},
	}
	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, "", fmt.Errorf("razorpay order response missing id")
	}

	repayment, err := s.repayments.Create(ctx, farmerID, orderID, amount)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store repayment order: %w", err)
	}

	keyID, _, _ := s.getCredentials(ctx)
	log.Printf("[Razorpay] Farmer %d opened repayment order %s for %.2f", farmerID, orderID, amount)
	return repayment, keyID, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature Razorpay sends
// with each webhook delivery.
func (s *RazorpayService) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	_, _, webhookSecret := s.getCredentials(ctx)
	if webhookSecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(webhookSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandlePaymentCaptured applies a captured payment to the farmer's credit
// ledger and closes the order. The order is claimed first with a
// CREATED-to-PROCESSING swap; since only the delivery that wins the claim
// touches the ledger, redelivered or concurrent webhooks cannot apply the
// repayment twice.
func (s *RazorpayService) HandlePaymentCaptured(ctx context.Context, orderID, paymentID string) error {
	repayment, err := s.repayments.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("repayment order %s not found: %w", orderID, err)
	}

	n, err := s.repayments.MarkProcessing(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to claim order %s: %w", orderID, err)
	}
	if n == 0 {
		// Already claimed, captured or failed. PROCESSING here means an
		// earlier delivery died mid-capture; that order needs review, a
		// redelivery must not apply the repayment on top of it.
		log.Printf("[Razorpay] Order %s already %s, ignoring duplicate capture", orderID, repayment.Status)
		return nil
	}

	refID := repayment.ID
	tx, err := s.credit.ApplyRepayment(ctx, repayment.FarmerID, repayment.Amount, "online_repayment", &refID, fmt.Sprintf("razorpay payment %s", paymentID))
	if err != nil {
		return fmt.Errorf("order %s claimed but repayment not applied: %w", orderID, err)
	}

	if n, err := s.repayments.MarkCaptured(ctx, orderID, paymentID, tx.ID, s.now()); err != nil || n == 0 {
		return fmt.Errorf("%w: repayment applied but order %s not closed: %v", ErrLedgerInconsistency, orderID, err)
	}
	log.Printf("[Razorpay] Order %s captured: farmer %d repaid %.2f", orderID, repayment.FarmerID, repayment.Amount)
	return nil
}

// HandlePaymentFailed records a failed payment attempt. The credit balance
// is untouched.
func (s *RazorpayService) HandlePaymentFailed(ctx context.Context, orderID string) error {
	if err := s.repayments.MarkFailed(ctx, orderID); err != nil {
		return fmt.Errorf("failed to mark order %s failed: %w", orderID, err)
	}
	return nil
}
