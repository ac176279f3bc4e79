// internal/services/settings_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/models"
)

const (
	SettingDefaultConversionFactor = "pricing.default_conversion_factor"
	SettingDocumentsFooter         = "documents.footer_text"
	SettingERPEnabled              = "erp.enabled"
)

// SettingsService keeps process-wide configuration as versioned rows. Reads
// always take the newest version of a key.
type SettingsService struct {
	db *gorm.DB
}

type UpdateSettingRequest struct {
	Value       interface{} `json:"value"`
	Description string      `json:"description,omitempty"`
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func splitSettingName(name string) (string, string, error) {
	category, key, ok := strings.Cut(name, ".")
	if !ok || category == "" || key == "" {
		return "", "", newValidationError("key", fmt.Sprintf("setting name %q must look like category.key", name))
	}
	return category, key, nil
}

func (s *SettingsService) Get(name string) (*models.Setting, error) {
	category, key, err := splitSettingName(name)
	if err != nil {
		return nil, err
	}

	var setting models.Setting
	if err := s.db.Where("category = ? AND key = ?", category, key).
		Order("version DESC").First(&setting).Error; err != nil {
		return nil, lookupError("setting", "load setting", err)
	}
	return &setting, nil
}

// Float returns the numeric value of a setting, or fallback when the setting
// does not exist.
func (s *SettingsService) Float(name string, fallback float64) (float64, error) {
	setting, err := s.Get(name)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return fallback, nil
		}
		return 0, err
	}

	switch v := setting.Value["value"].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return fallback, nil
	}
}

func (s *SettingsService) Bool(name string, fallback bool) (bool, error) {
	setting, err := s.Get(name)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return fallback, nil
		}
		return false, err
	}
	if v, ok := setting.Value["value"].(bool); ok {
		return v, nil
	}
	return fallback, nil
}

func (s *SettingsService) String(name, fallback string) (string, error) {
	setting, err := s.Get(name)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return fallback, nil
		}
		return "", err
	}
	if v, ok := setting.Value["value"].(string); ok {
		return v, nil
	}
	return fallback, nil
}

// Set stores a new version of the setting.
func (s *SettingsService) Set(name string, req *UpdateSettingRequest, userID uuid.UUID) (*models.Setting, error) {
	category, key, err := splitSettingName(name)
	if err != nil {
		return nil, err
	}

	dataType, err := settingDataType(req.Value)
	if err != nil {
		return nil, err
	}

	var setting models.Setting
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var latest models.Setting
		version := 1
		description := req.Description
		err := tx.Where("category = ? AND key = ?", category, key).Order("version DESC").First(&latest).Error
		switch {
		case err == nil:
			version = latest.Version + 1
			if description == "" {
				description = latest.Description
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		setting = models.Setting{
			Category:    category,
			Key:         key,
			Version:     version,
			Value:       models.JSONB{"value": req.Value},
			DataType:    dataType,
			Description: description,
			UpdatedBy:   &userID,
		}
		return tx.Create(&setting).Error
	})
	if err != nil {
		return nil, dependencyError("save setting", err)
	}
	return &setting, nil
}

// List returns the newest version of every setting.
func (s *SettingsService) List() ([]models.Setting, error) {
	var all []models.Setting
	if err := s.db.Order("category, key, version DESC").Find(&all).Error; err != nil {
		return nil, dependencyError("list settings", err)
	}

	latest := make([]models.Setting, 0, len(all))
	seen := make(map[string]bool)
	for _, setting := range all {
		name := setting.Category + "." + setting.Key
		if seen[name] {
			continue
		}
		seen[name] = true
		latest = append(latest, setting)
	}
	return latest, nil
}

func (s *SettingsService) History(name string) ([]models.Setting, error) {
	category, key, err := splitSettingName(name)
	if err != nil {
		return nil, err
	}

	var versions []models.Setting
	if err := s.db.Where("category = ? AND key = ?", category, key).
		Order("version DESC").Find(&versions).Error; err != nil {
		return nil, dependencyError("setting history", err)
	}
	if len(versions) == 0 {
		return nil, &NotFoundError{Resource: "setting"}
	}
	return versions, nil
}

func settingDataType(v interface{}) (string, error) {
	switch v.(type) {
	case float64:
		return "float", nil
	case bool:
		return "boolean", nil
	case string:
		return "string", nil
	default:
		return "", newValidationError("value", "setting value must be a number, boolean or string")
	}
}
