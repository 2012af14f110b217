package models

import (
	"time"
)

// StoredImage is an uploaded image blob referenced by image-kind field mappings.
type StoredImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImageQuota is the single byte-size quota record for the image table.
type ImageQuota struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UsedBytes  int64     `json:"used_bytes"`
	LimitBytes int64     `json:"limit_bytes"`
	UpdatedAt  time.Time `json:"updated_at"`
}
