package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/inkwell-cms/inkwell/core/settings/domain"
	"github.com/inkwell-cms/inkwell/core/settings/infrastructure"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

// SettingsService is the typed facade over the settings store. Missing
// keys fall back to the caller's default instead of erroring.
type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		repo: infrastructure.NewSettingsGormRepository(db),
	}
}

func (s *SettingsService) InitSchema(ctx context.Context) error {
	return s.repo.InitSchema(ctx)
}

func (s *SettingsService) Get(ctx context.Context, key string) (*domain.Setting, error) {
	return s.repo.Get(ctx, key)
}

func (s *SettingsService) GetString(ctx context.Context, key, fallback string) string {
	setting, err := s.repo.Get(ctx, key)
	if err != nil || setting == nil || setting.Value == "" {
		return fallback
	}
	return setting.Value
}

func (s *SettingsService) GetInt(ctx context.Context, key string, fallback int) int {
	setting, err := s.repo.Get(ctx, key)
	if err != nil || setting == nil {
		return fallback
	}
	if n, err := strconv.Atoi(setting.Value); err == nil {
		return n
	}
	return fallback
}

func (s *SettingsService) GetFloat(ctx context.Context, key string, fallback float64) float64 {
	setting, err := s.repo.Get(ctx, key)
	if err != nil || setting == nil {
		return fallback
	}
	if f, err := strconv.ParseFloat(setting.Value, 64); err == nil {
		return f
	}
	return fallback
}

func (s *SettingsService) GetBool(ctx context.Context, key string, fallback bool) bool {
	setting, err := s.repo.Get(ctx, key)
	if err != nil || setting == nil || setting.Value == "" {
		return fallback
	}
	switch strings.ToLower(setting.Value) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// GetJSON unmarshals a json-typed setting into out. A missing key
// leaves out untouched and returns false.
func (s *SettingsService) GetJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if setting == nil || setting.Value == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(setting.Value), out); err != nil {
		return false, pkgError.InternalServerError(fmt.Sprintf("setting %s holds invalid JSON: %v", key, err))
	}
	return true, nil
}

// Set validates the value against its declared type before storing.
func (s *SettingsService) Set(ctx context.Context, setting domain.Setting) error {
	setting.Key = strings.TrimSpace(setting.Key)
	if setting.Key == "" {
		return pkgError.ValidationError("key: cannot be blank.")
	}
	if setting.ValueType == "" {
		setting.ValueType = domain.TypeString
	}

	switch setting.ValueType {
	case domain.TypeString:
	case domain.TypeInteger:
		if _, err := strconv.Atoi(setting.Value); err != nil {
			return pkgError.ValidationError(fmt.Sprintf("value: %q is not an integer.", setting.Value))
		}
	case domain.TypeFloat:
		if _, err := strconv.ParseFloat(setting.Value, 64); err != nil {
			return pkgError.ValidationError(fmt.Sprintf("value: %q is not a number.", setting.Value))
		}
	case domain.TypeBoolean:
		switch strings.ToLower(setting.Value) {
		case "1", "true", "yes", "on", "0", "false", "no", "off":
		default:
			return pkgError.ValidationError(fmt.Sprintf("value: %q is not a boolean.", setting.Value))
		}
	case domain.TypeJSON:
		if !json.Valid([]byte(setting.Value)) {
			return pkgError.ValidationError("value: invalid JSON.")
		}
	default:
		return pkgError.ValidationError(fmt.Sprintf("value_type: unsupported type %q.", setting.ValueType))
	}

	return s.repo.Set(ctx, setting)
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *SettingsService) GetGroup(ctx context.Context, group string) ([]domain.Setting, error) {
	return s.repo.GetGroup(ctx, group)
}

// SetGroup stores a batch of settings under one group.
func (s *SettingsService) SetGroup(ctx context.Context, group string, settings []domain.Setting) error {
	for _, setting := range settings {
		setting.Group = group
		if err := s.Set(ctx, setting); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) DeleteGroup(ctx context.Context, group string) error {
	return s.repo.DeleteGroup(ctx, group)
}

func (s *SettingsService) GetByPrefix(ctx context.Context, prefix string) ([]domain.Setting, error) {
	return s.repo.GetByPrefix(ctx, prefix)
}
