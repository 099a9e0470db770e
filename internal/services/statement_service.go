package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"dairy-backend/internal/timeutil"
)

// documentUploader archives generated statements. Optional; nil disables
// archival and statements are only returned to the caller.
type documentUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// StatementService renders PDF statements: a collector's period payment
// statement and a farmer's credit ledger statement.
type StatementService struct {
	payments  collectorPaymentStore
	summaries summaryStore
	credit    *CreditService
	farmers   farmerReader
	uploader  documentUploader
}

func NewStatementService(payments collectorPaymentStore, summaries summaryStore, credit *CreditService, farmers farmerReader, uploader documentUploader) *StatementService {
	return &StatementService{
		payments:  payments,
		summaries: summaries,
		credit:    credit,
		farmers:   farmers,
		uploader:  uploader,
	}
}

// GeneratePaymentStatement renders a collector payment with its per-day
// breakdown and archives it when an uploader is configured.
func (s *StatementService) GeneratePaymentStatement(ctx context.Context, paymentID int) ([]byte, error) {
	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment %d not found: %w", paymentID, err)
	}
	summaries, err := s.summaries.ListByPeriod(ctx, payment.CollectorID, payment.PeriodStart, payment.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries for payment %d: %w", paymentID, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Collector Payment Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().In(timeutil.EAT).Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment Details", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Collector ID: %d", payment.CollectorID), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Payment #: %d", payment.ID), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Period: %s to %s",
		payment.PeriodStart.In(timeutil.EAT).Format("02-Jan-2006"),
		payment.PeriodEnd.In(timeutil.EAT).Format("02-Jan-2006")), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Rate: KES %.2f/L", payment.RatePerLiter), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Daily Breakdown", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(35, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Collections", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Received (L)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Variance (L)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(55, 7, "Penalties", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, sum := range summaries {
		pdf.CellFormat(35, 6, sum.SummaryDate.In(timeutil.EAT).Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", sum.TotalCollections), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", sum.TotalLitersReceived), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", sum.TotalVarianceLiters), "1", 0, "R", false, 0, "")
		pdf.CellFormat(55, 6, fmt.Sprintf("KES %.2f", sum.TotalPenaltyAmount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Settlement", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Total Liters: %.2f", payment.TotalLiters), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Gross: KES %.2f", payment.TotalLiters*payment.RatePerLiter), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("Penalties: KES %.2f", payment.TotalPenalties), "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(200, 255, 200)
	pdf.CellFormat(190, 10, fmt.Sprintf("Net Earnings: KES %.2f", payment.TotalEarnings), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	data := buf.Bytes()

	s.archive(ctx, fmt.Sprintf("statements/collector_%d/payment_%d.pdf", payment.CollectorID, payment.ID), data)
	return data, nil
}

// GenerateCreditStatement renders a farmer's credit ledger with the running
// balance, straight from the transaction history.
func (s *StatementService) GenerateCreditStatement(ctx context.Context, farmerID int) ([]byte, error) {
	farmer, err := s.farmers.Get(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("farmer %d not found: %w", farmerID, err)
	}
	profile, err := s.credit.GetProfile(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("credit profile for farmer %d not found: %w", farmerID, err)
	}
	txs, err := s.credit.ListTransactions(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for farmer %d: %w", farmerID, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Farmer Credit Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().In(timeutil.EAT).Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Account", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", farmer.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", farmer.Phone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Tier: %s", profile.Tier), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Credit Limit: KES %.2f", profile.CreditLimit), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Transactions", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(35, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Balance", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Reference", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, tx := range txs {
		pdf.CellFormat(35, 6, tx.CreatedAt.In(timeutil.EAT).Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, string(tx.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("KES %.2f", tx.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("KES %.2f", tx.BalanceAfter), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tx.ReferenceType, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	if profile.CurrentBalance > 0 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, fmt.Sprintf("Outstanding Balance: KES %.2f", profile.CurrentBalance), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	data := buf.Bytes()

	s.archive(ctx, fmt.Sprintf("statements/farmer_%d/credit_%s.pdf", farmerID, timeutil.Now().Format("20060102_150405")), data)
	return data, nil
}

func (s *StatementService) archive(ctx context.Context, key string, data []byte) {
	if s.uploader == nil {
		return
	}
	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.uploader.Upload(uploadCtx, key, data, "application/pdf"); err != nil {
		log.Printf("[Statement] Archive upload failed for %s: %v", key, err)
	}
}
