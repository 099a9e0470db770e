package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"dairy-backend/internal/models"
)

const totpIssuer = "DairyCoop"

// TOTPSetup is the enrollment payload: the secret plus a QR code the admin
// scans into their authenticator app.
type TOTPSetup struct {
	Secret      string `json:"secret"`
	QRCode      string `json:"qr_code"`
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

// TOTPService handles two-factor enrollment and verification for admin
// accounts. Sensitive toggles (auto-approve among them) require a fresh
// TOTP code from an enrolled admin.
type TOTPService struct {
	users userStore
}

func NewTOTPService(users userStore) *TOTPService {
	return &TOTPService{users: users}
}

// GenerateSetup creates a new secret for the user and returns it with a QR
// code. The secret is stored but 2FA stays off until a code is verified.
func (s *TOTPService) GenerateSetup(ctx context.Context, user *models.User) (*TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	if err := s.users.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, fmt.Errorf("failed to store totp secret: %w", err)
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return &TOTPSetup{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      totpIssuer,
		AccountName: user.Email,
	}, nil
}

// VerifyAndEnable checks a code against the stored secret and switches 2FA
// on for the user.
func (s *TOTPService) VerifyAndEnable(ctx context.Context, userID int, code string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	if user.TOTPSecret == "" {
		return fmt.Errorf("%w: totp setup not started", ErrValidation)
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return fmt.Errorf("%w: invalid verification code", ErrValidation)
	}
	if err := s.users.EnableTOTP(ctx, userID); err != nil {
		return fmt.Errorf("failed to enable totp: %w", err)
	}
	return nil
}

// Verify checks a code for an enrolled user.
func (s *TOTPService) Verify(user *models.User, code string) bool {
	if !user.TOTPEnabled || user.TOTPSecret == "" {
		return false
	}
	return totp.Validate(code, user.TOTPSecret)
}
