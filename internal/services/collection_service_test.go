package services

import (
	"context"
	"errors"
	"testing"

	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"
)

func newCollectionFixture(t *testing.T) (*CollectionService, *fakeCollections, int) {
	t.Helper()
	collections := newFakeCollections()
	farmers := newFakeFarmers()
	fm, _ := farmers.Create(context.Background(), &models.RegisterFarmerRequest{Name: "Wanjiku", Phone: "0700000001"})
	if _, err := farmers.SetStatus(context.Background(), fm.ID, models.FarmerStatusApproved, 1, timeutil.Now()); err != nil {
		t.Fatalf("approve farmer: %v", err)
	}
	return NewCollectionService(collections, farmers), collections, fm.ID
}

func TestRecord_StoresRequestedCollectionDay(t *testing.T) {
	svc, collections, farmerID := newCollectionFixture(t)

	c, err := svc.Record(context.Background(), &models.CreateCollectionRequest{
		FarmerID:        farmerID,
		LitersCollected: 40,
		CollectionDate:  "2026-03-10",
	}, 3)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	// The stored value must carry the requested day in its UTC fields; that
	// is the day a DATE column keeps. A local-midnight instant would land
	// the row on the previous day.
	stored, _ := collections.Get(context.Background(), c.ID)
	if got := dateKey(stored.CollectionDate); got != "2026-03-10" {
		t.Errorf("collection stored under %s, want 2026-03-10", got)
	}
}

func TestRecord_DefaultsToCurrentLocalDay(t *testing.T) {
	svc, collections, farmerID := newCollectionFixture(t)

	before := timeutil.DateOf(timeutil.Now())
	c, err := svc.Record(context.Background(), &models.CreateCollectionRequest{
		FarmerID:        farmerID,
		LitersCollected: 25,
	}, 3)
	after := timeutil.DateOf(timeutil.Now())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	stored, _ := collections.Get(context.Background(), c.ID)
	got := dateKey(stored.CollectionDate)
	if got != dateKey(before) && got != dateKey(after) {
		t.Errorf("default collection day = %s, want today (%s)", got, dateKey(before))
	}
}

func TestRecord_Validation(t *testing.T) {
	svc, _, farmerID := newCollectionFixture(t)

	tests := []struct {
		name string
		req  *models.CreateCollectionRequest
	}{
		{"zero liters", &models.CreateCollectionRequest{FarmerID: farmerID, LitersCollected: 0}},
		{"unknown farmer", &models.CreateCollectionRequest{FarmerID: 999, LitersCollected: 10}},
		{"bad date", &models.CreateCollectionRequest{FarmerID: farmerID, LitersCollected: 10, CollectionDate: "10/03/2026"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Record(context.Background(), tc.req, 3); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRecord_RejectsUnapprovedFarmer(t *testing.T) {
	collections := newFakeCollections()
	farmers := newFakeFarmers()
	fm, _ := farmers.Create(context.Background(), &models.RegisterFarmerRequest{Name: "Otieno", Phone: "0700000002"})
	svc := NewCollectionService(collections, farmers)

	_, err := svc.Record(context.Background(), &models.CreateCollectionRequest{FarmerID: fm.ID, LitersCollected: 10}, 3)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for pending farmer, got %v", err)
	}
}

func TestApproveForPayment_Idempotent(t *testing.T) {
	svc, collections, farmerID := newCollectionFixture(t)
	c, err := svc.Record(context.Background(), &models.CreateCollectionRequest{FarmerID: farmerID, LitersCollected: 30}, 3)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := svc.ApproveForPayment(context.Background(), c.ID)
		if err != nil {
			t.Fatalf("ApproveForPayment call %d: %v", i+1, err)
		}
		if !got.ApprovedForPayment {
			t.Fatalf("call %d: collection not marked approved", i+1)
		}
	}
	stored, _ := collections.Get(context.Background(), c.ID)
	if !stored.ApprovedForPayment {
		t.Error("approved flag not persisted")
	}
}
