// internal/models/color.go
package models

// Color names are stored uppercase.
type Color struct {
	BaseModel
	Name     string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	HexCode  string `json:"hex_code" gorm:"size:7"`
	Category string `json:"category" gorm:"size:50"`
	Scale    string `json:"scale" gorm:"size:50;index"`
}
