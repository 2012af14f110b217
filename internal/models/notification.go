package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

type Notification struct {
	ID        string           `gorm:"primaryKey" json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}

// NotificationProvider is an external push target (shoutrrr URL) with per-event
// opt-in flags.
type NotificationProvider struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UUID          string    `json:"uuid" gorm:"uniqueIndex"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Enabled       bool      `json:"enabled" gorm:"default:true"`
	NotifyFills   bool      `json:"notify_fills" gorm:"default:true"`
	NotifyImports bool      `json:"notify_imports" gorm:"default:true"`
	NotifyRules   bool      `json:"notify_rules" gorm:"default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
