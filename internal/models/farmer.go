package models

import "time"

// FarmerStatus tracks a farmer through onboarding.
type FarmerStatus string

const (
	FarmerStatusPending  FarmerStatus = "PENDING"
	FarmerStatusApproved FarmerStatus = "APPROVED"
	FarmerStatusRejected FarmerStatus = "REJECTED"
)

// CreditTier classifies a farmer and drives their credit limit.
type CreditTier string

const (
	TierBronze CreditTier = "BRONZE"
	TierSilver CreditTier = "SILVER"
	TierGold   CreditTier = "GOLD"
)

// Farmer is a registered milk supplier.
type Farmer struct {
	ID               int          `json:"id"`
	Name             string       `json:"name"`
	Phone            string       `json:"phone"`
	NationalID       string       `json:"national_id"`
	Location         string       `json:"location"`
	Tier             CreditTier   `json:"tier"`
	Status           FarmerStatus `json:"status"`
	ApprovedByUserID *int         `json:"approved_by_user_id,omitempty"`
	ApprovedAt       *time.Time   `json:"approved_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

type RegisterFarmerRequest struct {
	Name       string     `json:"name" validate:"required"`
	Phone      string     `json:"phone" validate:"required"`
	NationalID string     `json:"national_id" validate:"required"`
	Location   string     `json:"location"`
	Tier       CreditTier `json:"tier"`
}
