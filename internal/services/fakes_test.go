package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
)

var errNotFound = errors.New("not found")

// dateKey mirrors how a DATE parameter binds in SQL: comparisons run on the
// value's UTC calendar day, nothing else.
func dateKey(t time.Time) string {
	return t.UTC().Format(timeutil.DateLayout)
}

// asDateColumn models a DATE column round-trip: the stored value keeps only
// the UTC calendar day and scans back as midnight UTC.
func asDateColumn(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// In-memory stores backing the service tests. Each fake holds plain maps
// and optional failure injection so error paths can be exercised without a
// database.

type fakeProfiles struct {
	profiles map[int]*models.CreditProfile
	applyErr error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[int]*models.CreditProfile)}
}

func (f *fakeProfiles) Create(_ context.Context, farmerID int, tier models.CreditTier, creditLimit float64) (*models.CreditProfile, error) {
	if _, ok := f.profiles[farmerID]; ok {
		return nil, fmt.Errorf("profile exists for farmer %d", farmerID)
	}
	p := &models.CreditProfile{ID: len(f.profiles) + 1, FarmerID: farmerID, Tier: tier, CreditLimit: creditLimit}
	f.profiles[farmerID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) GetByFarmerID(_ context.Context, farmerID int) (*models.CreditProfile, error) {
	p, ok := f.profiles[farmerID]
	if !ok {
		return nil, errNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) ApplyBalance(_ context.Context, farmerID int, expectedBalance, newBalance, newTotalUsed, newTotalRepaid float64) (bool, error) {
	if f.applyErr != nil {
		return false, f.applyErr
	}
	p, ok := f.profiles[farmerID]
	if !ok {
		return false, errNotFound
	}
	if p.CurrentBalance != expectedBalance {
		return false, nil
	}
	p.CurrentBalance = newBalance
	p.TotalCreditUsed = newTotalUsed
	p.TotalRepaid = newTotalRepaid
	return true, nil
}

func (f *fakeProfiles) List(_ context.Context) ([]*models.CreditProfile, error) {
	out := make([]*models.CreditProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FarmerID < out[j].FarmerID })
	return out, nil
}

type fakeLedger struct {
	entries   []*models.CreditTransaction
	createErr error
}

func (f *fakeLedger) Create(_ context.Context, tx *models.CreditTransaction, createdAt time.Time) (*models.CreditTransaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *tx
	cp.ID = len(f.entries) + 1
	cp.CreatedAt = createdAt
	f.entries = append(f.entries, &cp)
	out := cp
	return &out, nil
}

func (f *fakeLedger) ListByFarmer(_ context.Context, farmerID int) ([]*models.CreditTransaction, error) {
	var out []*models.CreditTransaction
	for _, tx := range f.entries {
		if tx.FarmerID == farmerID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeRequests struct {
	seq      int
	requests map[int]*models.CreditRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: make(map[int]*models.CreditRequest)}
}

func (f *fakeRequests) Create(_ context.Context, req *models.CreateCreditRequestRequest, totalAmount float64) (*models.CreditRequest, error) {
	f.seq++
	r := &models.CreditRequest{
		ID:          f.seq,
		FarmerID:    req.FarmerID,
		PackagingID: req.PackagingID,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalAmount: totalAmount,
		Status:      models.CreditRequestPending,
		Notes:       req.Notes,
	}
	f.requests[r.ID] = r
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) Get(_ context.Context, id int) (*models.CreditRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) ListPending(_ context.Context) ([]*models.CreditRequest, error) {
	var out []*models.CreditRequest
	for _, r := range f.requests {
		if r.Status == models.CreditRequestPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRequests) Settle(_ context.Context, id int, status models.CreditRequestStatus, notes string, processedBy *int, processedAt time.Time) (int64, error) {
	r, ok := f.requests[id]
	if !ok || r.Status != models.CreditRequestPending {
		return 0, nil
	}
	r.Status = status
	if notes != "" {
		r.Notes = notes
	}
	r.ProcessedByUserID = processedBy
	r.ProcessedAt = &processedAt
	return 1, nil
}

type fakeSettings struct {
	values map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]string)}
}

func (f *fakeSettings) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, errNotFound
	}
	return &models.SystemSetting{SettingKey: key, SettingValue: v}, nil
}

func (f *fakeSettings) List(_ context.Context) ([]*models.SystemSetting, error) {
	var out []*models.SystemSetting
	for k, v := range f.values {
		out = append(out, &models.SystemSetting{SettingKey: k, SettingValue: v})
	}
	return out, nil
}

func (f *fakeSettings) Upsert(_ context.Context, key, value, _ string, _ int) error {
	f.values[key] = value
	return nil
}

type fakeCollections struct {
	seq         int
	collections map[int]*models.Collection
	markPaidErr error
}

func newFakeCollections() *fakeCollections {
	return &fakeCollections{collections: make(map[int]*models.Collection)}
}

func (f *fakeCollections) add(c *models.Collection) *models.Collection {
	f.seq++
	c.ID = f.seq
	c.CollectionDate = asDateColumn(c.CollectionDate)
	if c.FeeStatus == "" {
		c.FeeStatus = models.FeeStatusPending
	}
	f.collections[c.ID] = c
	return c
}

func (f *fakeCollections) Create(_ context.Context, farmerID, collectorID int, liters float64, date time.Time) (*models.Collection, error) {
	c := f.add(&models.Collection{FarmerID: farmerID, CollectorID: collectorID, LitersCollected: liters, CollectionDate: date})
	cp := *c
	return &cp, nil
}

func (f *fakeCollections) Get(_ context.Context, id int) (*models.Collection, error) {
	c, ok := f.collections[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCollections) SetApprovedForPayment(_ context.Context, id int) error {
	c, ok := f.collections[id]
	if !ok {
		return errNotFound
	}
	c.ApprovedForPayment = true
	return nil
}

func (f *fakeCollections) ListPayable(_ context.Context, collectorID int, from, to *time.Time) ([]*models.Collection, error) {
	var out []*models.Collection
	for _, c := range f.collections {
		if c.CollectorID != collectorID || !c.ApprovedForPayment || c.FeeStatus != models.FeeStatusPending {
			continue
		}
		if from != nil && dateKey(c.CollectionDate) < dateKey(*from) {
			continue
		}
		if to != nil && dateKey(c.CollectionDate) > dateKey(*to) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCollections) MarkPaidBatch(_ context.Context, ids []int) (int64, error) {
	if f.markPaidErr != nil {
		return 0, f.markPaidErr
	}
	var n int64
	for _, id := range ids {
		c, ok := f.collections[id]
		if ok && c.FeeStatus == models.FeeStatusPending {
			c.FeeStatus = models.FeeStatusPaid
			n++
		}
	}
	return n, nil
}

func (f *fakeCollections) ListByCollectorDate(_ context.Context, collectorID int, date time.Time) ([]*models.Collection, error) {
	day := dateKey(date)
	var out []*models.Collection
	for _, c := range f.collections {
		if c.CollectorID == collectorID && dateKey(c.CollectionDate) == day {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeApprovals struct {
	seq       int
	approvals map[int]*models.MilkApproval
	dates     map[int]time.Time // collectionID -> collection date
	batchErr  error
	failIDs   map[int]bool // per-record updates that should fail
}

func newFakeApprovals() *fakeApprovals {
	return &fakeApprovals{
		approvals: make(map[int]*models.MilkApproval),
		dates:     make(map[int]time.Time),
		failIDs:   make(map[int]bool),
	}
}

func (f *fakeApprovals) Create(_ context.Context, a *models.MilkApproval) (*models.MilkApproval, error) {
	f.seq++
	cp := *a
	cp.ID = f.seq
	f.approvals[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeApprovals) GetByCollectionID(_ context.Context, collectionID int) (*models.MilkApproval, error) {
	for _, a := range f.approvals {
		if a.CollectionID == collectionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeApprovals) ListPendingByCollectionIDs(_ context.Context, collectionIDs []int) ([]*models.MilkApproval, error) {
	want := make(map[int]bool, len(collectionIDs))
	for _, id := range collectionIDs {
		want[id] = true
	}
	var out []*models.MilkApproval
	for _, a := range f.approvals {
		if want[a.CollectionID] && a.PenaltyStatus == models.PenaltyStatusPending {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeApprovals) MarkPenaltyPaidBatch(_ context.Context, ids []int) (int64, error) {
	if f.batchErr != nil {
		return 0, f.batchErr
	}
	var n int64
	for _, id := range ids {
		a, ok := f.approvals[id]
		if ok && a.PenaltyStatus == models.PenaltyStatusPending {
			a.PenaltyStatus = models.PenaltyStatusPaid
			n++
		}
	}
	return n, nil
}

func (f *fakeApprovals) MarkPenaltyPaid(_ context.Context, id int) error {
	if f.failIDs[id] {
		return fmt.Errorf("update failed for approval %d", id)
	}
	a, ok := f.approvals[id]
	if !ok {
		return errNotFound
	}
	a.PenaltyStatus = models.PenaltyStatusPaid
	return nil
}

func (f *fakeApprovals) ListByCollectorDate(_ context.Context, collectorID int, date time.Time) ([]*models.MilkApproval, error) {
	day := dateKey(date)
	var out []*models.MilkApproval
	for _, a := range f.approvals {
		if a.CollectorID != collectorID {
			continue
		}
		if d, ok := f.dates[a.CollectionID]; !ok || dateKey(d) != day {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSummaries struct {
	rows map[string]*models.CollectorDailySummary
}

func newFakeSummaries() *fakeSummaries {
	return &fakeSummaries{rows: make(map[string]*models.CollectorDailySummary)}
}

func summaryFakeKey(collectorID int, date time.Time) string {
	return fmt.Sprintf("%d:%s", collectorID, dateKey(date))
}

func (f *fakeSummaries) Upsert(_ context.Context, s *models.CollectorDailySummary) error {
	cp := *s
	cp.SummaryDate = asDateColumn(cp.SummaryDate)
	f.rows[summaryFakeKey(cp.CollectorID, cp.SummaryDate)] = &cp
	return nil
}

func (f *fakeSummaries) Get(_ context.Context, collectorID int, date time.Time) (*models.CollectorDailySummary, error) {
	s, ok := f.rows[summaryFakeKey(collectorID, date)]
	if !ok {
		return nil, errNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSummaries) ListByPeriod(_ context.Context, collectorID int, from, to time.Time) ([]*models.CollectorDailySummary, error) {
	var out []*models.CollectorDailySummary
	for _, s := range f.rows {
		if s.CollectorID != collectorID || dateKey(s.SummaryDate) < dateKey(from) || dateKey(s.SummaryDate) > dateKey(to) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SummaryDate.Before(out[j].SummaryDate) })
	return out, nil
}

type fakeFarmers struct {
	farmers map[int]*models.Farmer
}

func newFakeFarmers() *fakeFarmers {
	return &fakeFarmers{farmers: make(map[int]*models.Farmer)}
}

func (f *fakeFarmers) Create(_ context.Context, req *models.RegisterFarmerRequest) (*models.Farmer, error) {
	fm := &models.Farmer{
		ID:     len(f.farmers) + 1,
		Name:   req.Name,
		Phone:  req.Phone,
		Tier:   req.Tier,
		Status: models.FarmerStatusPending,
	}
	f.farmers[fm.ID] = fm
	cp := *fm
	return &cp, nil
}

func (f *fakeFarmers) Get(_ context.Context, id int) (*models.Farmer, error) {
	fm, ok := f.farmers[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *fm
	return &cp, nil
}

func (f *fakeFarmers) SetStatus(_ context.Context, id int, status models.FarmerStatus, approverID int, approvedAt time.Time) (int64, error) {
	fm, ok := f.farmers[id]
	if !ok || fm.Status != models.FarmerStatusPending {
		return 0, nil
	}
	fm.Status = status
	fm.ApprovedByUserID = &approverID
	fm.ApprovedAt = &approvedAt
	return 1, nil
}

func (f *fakeFarmers) List(_ context.Context, status models.FarmerStatus) ([]*models.Farmer, error) {
	var out []*models.Farmer
	for _, fm := range f.farmers {
		if status == "" || fm.Status == status {
			cp := *fm
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
