package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dairy-backend/internal/models"
)

type recordingBroadcaster struct {
	events []string
}

func (r *recordingBroadcaster) Broadcast(event string, _ any) {
	r.events = append(r.events, event)
}

type reconcileFixture struct {
	collections *fakeCollections
	approvals   *fakeApprovals
	summaries   *fakeSummaries
	approvalSvc *ApprovalService
	svc         *ReconciliationService
	events      *recordingBroadcaster
}

func newReconcileFixture() *reconcileFixture {
	f := &reconcileFixture{
		collections: newFakeCollections(),
		approvals:   newFakeApprovals(),
		summaries:   newFakeSummaries(),
		events:      &recordingBroadcaster{},
	}
	f.approvalSvc = NewApprovalService(f.approvals, f.collections, f.summaries, newFakeSettings(), 5, 2)
	f.svc = NewReconciliationService(f.collections, f.approvals, f.approvalSvc, f.events)
	return f
}

// seedSettled adds one payable collection with its pending-penalty approval.
func (f *reconcileFixture) seedSettled(collectorID int, date time.Time, collected, received, penalty float64) (*models.Collection, *models.MilkApproval) {
	c := f.collections.add(&models.Collection{
		FarmerID:           1,
		CollectorID:        collectorID,
		LitersCollected:    collected,
		CollectionDate:     date,
		ApprovedForPayment: true,
	})
	a, _ := f.approvals.Create(context.Background(), &models.MilkApproval{
		CollectionID:   c.ID,
		CollectorID:    collectorID,
		ReceivedLiters: received,
		VarianceLiters: received - collected,
		PenaltyAmount:  penalty,
		PenaltyStatus:  models.PenaltyStatusPending,
		ApprovedAt:     date,
	})
	f.approvals.dates[c.ID] = date
	return c, a
}

func TestMarkCollectionsAsPaid_SettlesCollectionsAndApprovals(t *testing.T) {
	f := newReconcileFixture()
	date := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	c1, _ := f.seedSettled(3, date, 50, 48, 0)
	c2, _ := f.seedSettled(3, date, 30, 25, 5)

	result, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if err != nil {
		t.Fatalf("MarkCollectionsAsPaid: %v", err)
	}
	if result.CollectionsUpdated != 2 || result.ApprovalsUpdated != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Partial() {
		t.Errorf("run should not be partial: %+v", result)
	}
	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("run id not assigned")
	}

	for _, id := range []int{c1.ID, c2.ID} {
		c, _ := f.collections.Get(context.Background(), id)
		if c.FeeStatus != models.FeeStatusPaid {
			t.Errorf("collection %d fee status = %s, want PAID", id, c.FeeStatus)
		}
		a, _ := f.approvals.GetByCollectionID(context.Background(), id)
		if a.PenaltyStatus != models.PenaltyStatusPaid {
			t.Errorf("approval for collection %d penalty status = %s, want PAID", id, a.PenaltyStatus)
		}
	}

	// The touched daily summary is rebuilt and reflects the settlement.
	summary, err := f.summaries.Get(context.Background(), 3, date)
	if err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	if summary.PenaltyStatus != models.PenaltyStatusPaid {
		t.Errorf("summary penalty status = %s, want PAID", summary.PenaltyStatus)
	}
	if summary.TotalCollections != 2 || summary.TotalPenaltyAmount != 5 {
		t.Errorf("summary = %+v", summary)
	}

	if len(f.events.events) != 1 || f.events.events[0] != "reconciliation_completed" {
		t.Errorf("events = %v", f.events.events)
	}
}

func TestMarkCollectionsAsPaid_EmptySelection(t *testing.T) {
	f := newReconcileFixture()

	result, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if err != nil {
		t.Fatalf("empty run must succeed: %v", err)
	}
	if result.CollectionsUpdated != 0 || result.ApprovalsUpdated != 0 || result.Partial() {
		t.Errorf("result = %+v", result)
	}
}

func TestMarkCollectionsAsPaid_Idempotent(t *testing.T) {
	f := newReconcileFixture()
	date := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	f.seedSettled(3, date, 50, 50, 0)

	first, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CollectionsUpdated != 1 {
		t.Fatalf("first run updated %d collections", first.CollectionsUpdated)
	}

	// Everything is already settled, so the second run selects nothing.
	second, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CollectionsUpdated != 0 || second.ApprovalsUpdated != 0 {
		t.Errorf("second run = %+v", second)
	}
}

func TestMarkCollectionsAsPaid_SelectionScope(t *testing.T) {
	f := newReconcileFixture()
	date := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	f.seedSettled(3, date, 50, 50, 0)

	// Not payment-approved: excluded.
	f.collections.add(&models.Collection{CollectorID: 3, LitersCollected: 20, CollectionDate: date})
	// Different collector: excluded.
	other, _ := f.seedSettled(4, date, 10, 10, 0)

	result, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if err != nil {
		t.Fatalf("MarkCollectionsAsPaid: %v", err)
	}
	if result.CollectionsUpdated != 1 {
		t.Errorf("updated %d collections, want 1", result.CollectionsUpdated)
	}
	c, _ := f.collections.Get(context.Background(), other.ID)
	if c.FeeStatus != models.FeeStatusPending {
		t.Error("other collector's collection must stay pending")
	}
}

func TestMarkCollectionsAsPaid_DateRange(t *testing.T) {
	f := newReconcileFixture()
	inRange := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	outOfRange := time.Date(2026, 3, 20, 6, 0, 0, 0, time.UTC)
	f.seedSettled(3, inRange, 50, 50, 0)
	late, _ := f.seedSettled(3, outOfRange, 30, 30, 0)

	from := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	result, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, &from, &to)
	if err != nil {
		t.Fatalf("MarkCollectionsAsPaid: %v", err)
	}
	if result.CollectionsUpdated != 1 {
		t.Errorf("updated %d collections, want 1", result.CollectionsUpdated)
	}
	c, _ := f.collections.Get(context.Background(), late.ID)
	if c.FeeStatus != models.FeeStatusPending {
		t.Error("collection outside the period must stay pending")
	}
}

func TestMarkCollectionsAsPaid_BatchFailureIsFatal(t *testing.T) {
	f := newReconcileFixture()
	date := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	c, a := f.seedSettled(3, date, 50, 48, 0)
	f.collections.markPaidErr = errors.New("connection reset")

	_, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if !errors.Is(err, ErrCollectionUpdateFailed) {
		t.Fatalf("expected ErrCollectionUpdateFailed, got %v", err)
	}

	// Nothing downstream may have moved.
	stored, _ := f.collections.Get(context.Background(), c.ID)
	if stored.FeeStatus != models.FeeStatusPending {
		t.Error("collection must stay pending after a failed batch")
	}
	approval, _ := f.approvals.GetByCollectionID(context.Background(), a.CollectionID)
	if approval.PenaltyStatus != models.PenaltyStatusPending {
		t.Error("approval must stay pending after a failed batch")
	}
}

func TestMarkCollectionsAsPaid_FallbackSettlesRowByRow(t *testing.T) {
	f := newReconcileFixture()
	date := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	_, a1 := f.seedSettled(3, date, 50, 48, 0)
	_, a2 := f.seedSettled(3, date, 30, 25, 5)
	_, a3 := f.seedSettled(3, date, 40, 40, 0)

	// Batch penalty update fails; one row also fails individually.
	f.approvals.batchErr = errors.New("deadlock detected")
	f.approvals.failIDs[a2.ID] = true

	result, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if err != nil {
		t.Fatalf("partial propagation must not fail the run: %v", err)
	}
	if result.CollectionsUpdated != 3 {
		t.Errorf("collections updated = %d, want 3", result.CollectionsUpdated)
	}
	if result.ApprovalsUpdated != 2 {
		t.Errorf("approvals updated = %d, want 2", result.ApprovalsUpdated)
	}
	if !result.Partial() || result.Warning == "" {
		t.Errorf("expected a partial result with a warning, got %+v", result)
	}
	if len(result.PendingApprovalIDs) != 1 || result.PendingApprovalIDs[0] != a2.ID {
		t.Errorf("pending approval ids = %v, want [%d]", result.PendingApprovalIDs, a2.ID)
	}

	for _, tc := range []struct {
		approval *models.MilkApproval
		want     models.PenaltyStatus
	}{
		{a1, models.PenaltyStatusPaid},
		{a2, models.PenaltyStatusPending},
		{a3, models.PenaltyStatusPaid},
	} {
		stored := f.approvals.approvals[tc.approval.ID]
		if stored.PenaltyStatus != tc.want {
			t.Errorf("approval %d penalty status = %s, want %s", tc.approval.ID, stored.PenaltyStatus, tc.want)
		}
	}

	// The stuck row is retryable: a later run with the store healthy again
	// does not touch collections (already paid) but the approval can be
	// settled by hand or a manual retry.
	f.approvals.batchErr = nil
	delete(f.approvals.failIDs, a2.ID)
	if err := f.approvals.MarkPenaltyPaid(context.Background(), a2.ID); err != nil {
		t.Fatalf("manual retry: %v", err)
	}
	if f.approvals.approvals[a2.ID].PenaltyStatus != models.PenaltyStatusPaid {
		t.Error("manual retry should settle the approval")
	}
}

func TestMarkCollectionsAsPaid_RecomputesSameDayAsApproval(t *testing.T) {
	f := newReconcileFixture()

	// An instant late in the UTC day is already the next calendar day in
	// EAT. The approval-time recompute and the reconciliation-time recompute
	// must resolve it to the same summary row; a mismatch would leave the
	// settled day's penalties in one row and upsert an empty row for another.
	boundary := time.Date(2026, 3, 9, 21, 30, 0, 0, time.UTC)
	c := f.collections.add(&models.Collection{
		FarmerID:           1,
		CollectorID:        3,
		LitersCollected:    30,
		CollectionDate:     boundary,
		ApprovedForPayment: true,
	})
	f.approvals.dates[c.ID] = c.CollectionDate

	if _, err := f.approvalSvc.RecordApproval(context.Background(), &models.RecordApprovalRequest{CollectionID: c.ID, ReceivedLiters: 25}, 9); err != nil {
		t.Fatalf("RecordApproval: %v", err)
	}
	if len(f.summaries.rows) != 1 {
		t.Fatalf("expected one summary row after approval, got %d", len(f.summaries.rows))
	}

	result, err := f.svc.MarkCollectionsAsPaid(context.Background(), 3, nil, nil)
	if err != nil {
		t.Fatalf("MarkCollectionsAsPaid: %v", err)
	}
	if result.CollectionsUpdated != 1 || result.ApprovalsUpdated != 1 {
		t.Fatalf("result = %+v", result)
	}

	if len(f.summaries.rows) != 1 {
		t.Fatalf("reconciliation wrote a summary under a different day: %d rows", len(f.summaries.rows))
	}
	for _, s := range f.summaries.rows {
		if s.PenaltyStatus != models.PenaltyStatusPaid {
			t.Errorf("summary penalty status = %s, want PAID", s.PenaltyStatus)
		}
		if !approxEq(s.TotalPenaltyAmount, 7) {
			t.Errorf("summary penalty total = %.2f, want 7 preserved through settlement", s.TotalPenaltyAmount)
		}
	}
}
