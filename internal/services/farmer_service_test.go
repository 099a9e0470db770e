package services

import (
	"context"
	"errors"
	"testing"

	"dairy-backend/internal/config"
	"dairy-backend/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Credit.TierLimits = map[string]float64{
		"BRONZE": 2000,
		"SILVER": 5000,
		"GOLD":   10000,
	}
	return cfg
}

func TestFarmerApprove_OpensCreditProfile(t *testing.T) {
	farmers := newFakeFarmers()
	profiles := newFakeProfiles()
	svc := NewFarmerService(farmers, profiles, testConfig())

	farmer, err := svc.Register(context.Background(), &models.RegisterFarmerRequest{
		Name: "Wanjiku Kamau", Phone: "0712000001", Tier: models.TierSilver,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if farmer.Status != models.FarmerStatusPending {
		t.Fatalf("status = %s, want PENDING", farmer.Status)
	}

	approved, err := svc.Approve(context.Background(), farmer.ID, 9, models.TierSilver)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.FarmerStatusApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}

	profile, err := profiles.GetByFarmerID(context.Background(), farmer.ID)
	if err != nil {
		t.Fatalf("profile not opened: %v", err)
	}
	if profile.CreditLimit != 5000 || profile.CurrentBalance != 0 {
		t.Errorf("profile = %+v", profile)
	}
}

func TestFarmerApprove_OnlyOnce(t *testing.T) {
	farmers := newFakeFarmers()
	profiles := newFakeProfiles()
	svc := NewFarmerService(farmers, profiles, testConfig())

	farmer, _ := svc.Register(context.Background(), &models.RegisterFarmerRequest{Name: "A", Phone: "0712000002"})
	if _, err := svc.Approve(context.Background(), farmer.ID, 9, models.TierBronze); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := svc.Approve(context.Background(), farmer.ID, 9, models.TierBronze); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second approve: expected ErrNotPending, got %v", err)
	}
}

func TestFarmerReject_NoProfile(t *testing.T) {
	farmers := newFakeFarmers()
	profiles := newFakeProfiles()
	svc := NewFarmerService(farmers, profiles, testConfig())

	farmer, _ := svc.Register(context.Background(), &models.RegisterFarmerRequest{Name: "B", Phone: "0712000003"})
	rejected, err := svc.Reject(context.Background(), farmer.ID, 9)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.FarmerStatusRejected {
		t.Errorf("status = %s, want REJECTED", rejected.Status)
	}
	if _, err := profiles.GetByFarmerID(context.Background(), farmer.ID); err == nil {
		t.Error("rejected farmer must not get a credit profile")
	}
}

func TestFarmerRegister_Validation(t *testing.T) {
	svc := NewFarmerService(newFakeFarmers(), newFakeProfiles(), testConfig())
	if _, err := svc.Register(context.Background(), &models.RegisterFarmerRequest{Phone: "0712"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Register(context.Background(), &models.RegisterFarmerRequest{Name: "C"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
