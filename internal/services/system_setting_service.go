package services

import (
	"context"
	"fmt"
	"strconv"

	"dairy-backend/internal/models"
)

// settingStore is the slice of the settings repository the services need.
// Reads always go to the store; setting values are never held in process
// state, so a flipped flag takes effect on the very next operation.
type settingStore interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	List(ctx context.Context) ([]*models.SystemSetting, error)
	Upsert(ctx context.Context, key, value, description string, userID int) error
}

type SystemSettingService struct {
	settings settingStore
}

func NewSystemSettingService(settings settingStore) *SystemSettingService {
	return &SystemSettingService{settings: settings}
}

func (s *SystemSettingService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting, err := s.settings.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting, nil
}

func (s *SystemSettingService) List(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.settings.List(ctx)
}

func (s *SystemSettingService) Update(ctx context.Context, key, value string, userID int) error {
	if key == "" {
		return fmt.Errorf("%w: setting key is required", ErrValidation)
	}
	if err := s.settings.Upsert(ctx, key, value, "", userID); err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}

// boolSetting reads a flag from the store, falling back to def when the key
// is missing or unparseable.
func boolSetting(ctx context.Context, settings settingStore, key string, def bool) bool {
	setting, err := settings.Get(ctx, key)
	if err != nil {
		return def
	}
	v, err := strconv.ParseBool(setting.SettingValue)
	if err != nil {
		return def
	}
	return v
}

// floatSetting reads a numeric tuning value from the store, falling back to
// the configured default when the key is missing or unparseable.
func floatSetting(ctx context.Context, settings settingStore, key string, def float64) float64 {
	setting, err := settings.Get(ctx, key)
	if err != nil {
		return def
	}
	v, err := strconv.ParseFloat(setting.SettingValue, 64)
	if err != nil {
		return def
	}
	return v
}
