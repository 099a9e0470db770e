package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dairy-backend/internal/metrics"
	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
)

type payableCollectionStore interface {
	ListPayable(ctx context.Context, collectorID int, from, to *time.Time) ([]*models.Collection, error)
	MarkPaidBatch(ctx context.Context, ids []int) (int64, error)
}

type penaltyStore interface {
	ListPendingByCollectionIDs(ctx context.Context, collectionIDs []int) ([]*models.MilkApproval, error)
	MarkPenaltyPaidBatch(ctx context.Context, ids []int) (int64, error)
	MarkPenaltyPaid(ctx context.Context, id int) error
}

type summaryRecomputer interface {
	RecomputeDailySummary(ctx context.Context, collectorID int, date time.Time) error
}

// eventBroadcaster pushes reconciliation events to connected monitoring
// clients. Optional; a nil broadcaster disables it.
type eventBroadcaster interface {
	Broadcast(event string, payload any)
}

// ReconcileResult reports one reconciliation run. PendingApprovalIDs lists
// approvals whose penalty status could not be settled; the run is still a
// success, and those rows will be retried on a later run or settled by hand.
type ReconcileResult struct {
	RunID              uuid.UUID `json:"run_id"`
	CollectorID        int       `json:"collector_id"`
	CollectionsUpdated int       `json:"collections_updated"`
	ApprovalsUpdated   int       `json:"approvals_updated"`
	PendingApprovalIDs []int     `json:"pending_approval_ids,omitempty"`
	Warning            string    `json:"warning,omitempty"`
}

// Partial reports whether penalty propagation left rows behind.
func (r *ReconcileResult) Partial() bool {
	return len(r.PendingApprovalIDs) > 0 || r.Warning != ""
}

// ReconciliationService settles a collector's payable collections: it flips
// their fee status to PAID and propagates the settlement to the matching
// milk approvals and daily summaries.
type ReconciliationService struct {
	collections payableCollectionStore
	approvals   penaltyStore
	summaries   summaryRecomputer
	events      eventBroadcaster
}

func NewReconciliationService(collections payableCollectionStore, approvals penaltyStore, summaries summaryRecomputer, events eventBroadcaster) *ReconciliationService {
	return &ReconciliationService{
		collections: collections,
		approvals:   approvals,
		summaries:   summaries,
		events:      events,
	}
}

// MarkCollectionsAsPaid runs one reconciliation for a collector, optionally
// restricted to a date range.
//
// Selection only picks collections that are payment-approved with a pending
// fee status, so re-running after success is a harmless no-op. The
// collections batch update is the commit point and must succeed as a unit;
// penalty propagation is best-effort: a failed batch degrades to per-record
// updates, and rows that still fail are reported, not retried in-run.
func (s *ReconciliationService) MarkCollectionsAsPaid(ctx context.Context, collectorID int, from, to *time.Time) (*ReconcileResult, error) {
	result := &ReconcileResult{RunID: uuid.New(), CollectorID: collectorID}

	// Range bounds compare against a DATE column; canonicalize them to the
	// EAT calendar day so the filter covers exactly the requested days.
	if from != nil {
		d := timeutil.DateOf(*from)
		from = &d
	}
	if to != nil {
		d := timeutil.DateOf(*to)
		to = &d
	}

	payable, err := s.collections.ListPayable(ctx, collectorID, from, to)
	if err != nil {
		metrics.ReconciliationRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to list payable collections for collector %d: %w", collectorID, err)
	}
	if len(payable) == 0 {
		metrics.ReconciliationRuns.WithLabelValues("success").Inc()
		log.Printf("[Reconciliation] Run %s: collector %d has nothing payable", result.RunID, collectorID)
		return result, nil
	}

	collectionIDs := make([]int, 0, len(payable))
	dates := make(map[time.Time]struct{})
	for _, c := range payable {
		collectionIDs = append(collectionIDs, c.ID)
		dates[timeutil.DateOf(c.CollectionDate)] = struct{}{}
	}

	n, err := s.collections.MarkPaidBatch(ctx, collectionIDs)
	if err != nil {
		metrics.ReconciliationRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: collector %d: %v", ErrCollectionUpdateFailed, collectorID, err)
	}
	result.CollectionsUpdated = int(n)

	s.propagatePenalties(ctx, collectionIDs, result)
	s.recomputeSummaries(ctx, collectorID, dates, result)

	outcome := "success"
	if result.Partial() {
		outcome = "partial"
	}
	metrics.ReconciliationRuns.WithLabelValues(outcome).Inc()
	log.Printf("[Reconciliation] Run %s: collector %d, %d collections paid, %d approvals settled, %d left pending",
		result.RunID, collectorID, result.CollectionsUpdated, result.ApprovalsUpdated, len(result.PendingApprovalIDs))

	if s.events != nil {
		s.events.Broadcast("reconciliation_completed", result)
	}
	return result, nil
}

// propagatePenalties settles penalty status on the approvals behind the paid
// collections. Batch first; on batch failure each row is retried alone so a
// single bad row cannot hold the rest hostage.
func (s *ReconciliationService) propagatePenalties(ctx context.Context, collectionIDs []int, result *ReconcileResult) {
	approvals, err := s.approvals.ListPendingByCollectionIDs(ctx, collectionIDs)
	if err != nil {
		result.Warning = fmt.Sprintf("could not load approvals for penalty settlement: %v", err)
		log.Printf("[Reconciliation] Run %s: %s", result.RunID, result.Warning)
		return
	}
	if len(approvals) == 0 {
		return
	}

	approvalIDs := make([]int, 0, len(approvals))
	for _, a := range approvals {
		approvalIDs = append(approvalIDs, a.ID)
	}

	if n, err := s.approvals.MarkPenaltyPaidBatch(ctx, approvalIDs); err == nil {
		result.ApprovalsUpdated = int(n)
		return
	} else {
		log.Printf("[Reconciliation] Run %s: batch penalty update failed, retrying %d rows individually: %v", result.RunID, len(approvalIDs), err)
	}

	for _, id := range approvalIDs {
		metrics.ReconciliationFallbackRetries.Inc()
		if err := s.approvals.MarkPenaltyPaid(ctx, id); err != nil {
			metrics.PenaltyPropagationFailures.Inc()
			result.PendingApprovalIDs = append(result.PendingApprovalIDs, id)
			log.Printf("[Reconciliation] Run %s: approval %d left pending: %v", result.RunID, id, err)
			continue
		}
		result.ApprovalsUpdated++
	}
	if len(result.PendingApprovalIDs) > 0 {
		result.Warning = fmt.Sprintf("%d approvals still pending penalty settlement", len(result.PendingApprovalIDs))
	}
}

// recomputeSummaries rebuilds the daily summaries touched by this run.
// Summaries are derived data; a failed rebuild is logged and the summary
// catches up on the next recompute.
func (s *ReconciliationService) recomputeSummaries(ctx context.Context, collectorID int, dates map[time.Time]struct{}, result *ReconcileResult) {
	for date := range dates {
		if err := s.summaries.RecomputeDailySummary(ctx, collectorID, date); err != nil {
			log.Printf("[Reconciliation] Run %s: summary recompute failed for %s: %v", result.RunID, date.In(timeutil.EAT).Format(timeutil.DateLayout), err)
		}
	}
}
