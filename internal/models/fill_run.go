package models

import (
	"time"
)

// FillRun records one fill invocation for history and diagnostics.
type FillRun struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UUID        string    `json:"uuid" gorm:"uniqueIndex"`
	RuleUUID    string    `json:"rule_uuid" gorm:"index"`
	VariantUUID string    `json:"variant_uuid"`
	URL         string    `json:"url"`
	FilledCount int       `json:"filled_count"`
	Errors      []string  `json:"errors,omitempty" gorm:"serializer:json"`
	DurationMs  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
