package models

import "time"

// Well known setting keys.
const (
	SettingCreditAutoApprove       = "credit_auto_approve"
	SettingVarianceTolerancePct    = "variance_tolerance_percent"
	SettingPenaltyRatePerLiter     = "penalty_rate_per_liter"
	SettingCollectorRatePerLiter   = "collector_rate_per_liter"
	SettingRazorpayKeyID           = "razorpay_key_id"
	SettingRazorpayKeySecret       = "razorpay_key_secret"
	SettingRazorpayWebhookSecret   = "razorpay_webhook_secret"
)

type SystemSetting struct {
	ID              int       `json:"id"`
	SettingKey      string    `json:"setting_key"`
	SettingValue    string    `json:"setting_value"`
	Description     string    `json:"description"`
	UpdatedAt       time.Time `json:"updated_at"`
	UpdatedByUserID int       `json:"updated_by_user_id"`
}

type UpdateSettingRequest struct {
	SettingValue string `json:"setting_value"`
}
