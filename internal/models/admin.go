// internal/models/admin.go
package models

import (
	"github.com/google/uuid"
)

// Setting is one version of a configuration value. Rows are never updated:
// a change inserts the next version and readers take the highest one.
type Setting struct {
	BaseModel
	Category    string     `json:"category" gorm:"size:50;not null;index:idx_settings_key"`
	Key         string     `json:"key" gorm:"size:100;not null;index:idx_settings_key"`
	Version     int        `json:"version" gorm:"not null;index:idx_settings_key"`
	Value       JSONB      `json:"value" gorm:"not null"`
	DataType    string     `json:"data_type" gorm:"size:20;not null"`
	Description string     `json:"description" gorm:"type:text"`
	UpdatedBy   *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"new_values"`
	StatusCode   int        `json:"status_code"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}
