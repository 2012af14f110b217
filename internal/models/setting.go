package models

import (
	"time"
)

// Well-known setting keys the engine reads and writes.
const (
	SettingKeyFab = "fab_settings" // floating-action-button settings blob (JSON)
)

// Setting is a generic key/value configuration row.
type Setting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"uniqueIndex"`
	Value     string    `json:"value"`
	Category  string    `json:"category,omitempty"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
