package repositories

import (
	"context"
	"fmt"
	"time"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineRepaymentRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineRepaymentRepository(db *pgxpool.Pool) *OnlineRepaymentRepository {
	return &OnlineRepaymentRepository{DB: db}
}

func (r *OnlineRepaymentRepository) Create(ctx context.Context, farmerID int, orderID string, amount float64) (*models.OnlineRepayment, error) {
	query := `
		INSERT INTO online_repayments (farmer_id, order_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at
	`

	p := &models.OnlineRepayment{
		FarmerID: farmerID,
		OrderID:  orderID,
		Amount:   amount,
	}
	err := r.DB.QueryRow(ctx, query, farmerID, orderID, amount).Scan(
		&p.ID, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create online repayment: %w", err)
	}
	return p, nil
}

func (r *OnlineRepaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineRepayment, error) {
	query := `
		SELECT id, farmer_id, order_id, COALESCE(payment_id, '') as payment_id,
			amount, status, credit_tx_id, created_at, captured_at
		FROM online_repayments
		WHERE order_id = $1
	`

	p := &models.OnlineRepayment{}
	err := r.DB.QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.FarmerID, &p.OrderID, &p.PaymentID,
		&p.Amount, &p.Status, &p.CreditTxID, &p.CreatedAt, &p.CapturedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MarkProcessing claims an order for capture. The status predicate is the
// idempotency gate: of any number of concurrent webhook deliveries exactly
// one matches a row, and only that one may touch the ledger.
func (r *OnlineRepaymentRepository) MarkProcessing(ctx context.Context, orderID string) (int64, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE online_repayments SET status = 'PROCESSING'
		WHERE order_id = $1 AND status = 'CREATED'
	`, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkCaptured closes a claimed order after its ledger entry is in.
func (r *OnlineRepaymentRepository) MarkCaptured(ctx context.Context, orderID, paymentID string, creditTxID int, capturedAt time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE online_repayments
		SET status = 'CAPTURED', payment_id = $1, credit_tx_id = $2, captured_at = $3
		WHERE order_id = $4 AND status = 'PROCESSING'
	`, paymentID, creditTxID, capturedAt, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *OnlineRepaymentRepository) MarkFailed(ctx context.Context, orderID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE online_repayments SET status = 'FAILED'
		WHERE order_id = $1 AND status = 'CREATED'
	`, orderID)
	return err
}
