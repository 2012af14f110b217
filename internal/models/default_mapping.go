package models

import (
	"time"
)

// DefaultMapping is a standing association between a URL pattern and a rule,
// used for unattended fills. The pattern string is the uniqueness key; a
// mapping is only honored while its pattern still equals the referenced rule's
// current pattern.
type DefaultMapping struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Pattern   string    `json:"pattern" gorm:"uniqueIndex"`
	RuleUUID  string    `json:"rule_uuid" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
