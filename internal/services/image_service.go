package services

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/models"
)

var (
	ErrImageNotFound  = errors.New("image not found")
	ErrQuotaExceeded  = errors.New("image storage quota exceeded")
	ErrEmptyImageData = errors.New("image data is empty")
)

// ImageService stores image blobs referenced by image-kind field mappings and
// maintains the single byte-size quota record.
type ImageService struct {
	db         *gorm.DB
	limitBytes int64
}

func NewImageService(db *gorm.DB, limitBytes int64) *ImageService {
	return &ImageService{db: db, limitBytes: limitBytes}
}

// Add stores a new image, enforcing the byte quota.
func (s *ImageService) Add(name, mimeType string, data []byte) (*models.StoredImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImageData
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	image := models.StoredImage{
		UUID:     uuid.NewString(),
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		quota, err := s.quotaLocked(tx)
		if err != nil {
			return err
		}
		if quota.UsedBytes+image.Size > quota.LimitBytes {
			return fmt.Errorf("%w: %d of %d bytes used", ErrQuotaExceeded, quota.UsedBytes, quota.LimitBytes)
		}
		if err := tx.Create(&image).Error; err != nil {
			return err
		}
		quota.UsedBytes += image.Size
		return tx.Save(quota).Error
	})
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// Get returns an image with its blob.
func (s *ImageService) Get(imageUUID string) (*models.StoredImage, error) {
	var image models.StoredImage
	if err := s.db.Where("uuid = ?", imageUUID).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

// List returns image metadata without blobs.
func (s *ImageService) List() ([]models.StoredImage, error) {
	var images []models.StoredImage
	if err := s.db.Omit("data").Order("created_at desc").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// Delete removes an image and releases its bytes from the quota record.
func (s *ImageService) Delete(imageUUID string) error {
	image, err := s.Get(imageUUID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(image).Error; err != nil {
			return err
		}
		quota, err := s.quotaLocked(tx)
		if err != nil {
			return err
		}
		quota.UsedBytes -= image.Size
		if quota.UsedBytes < 0 {
			quota.UsedBytes = 0
		}
		return tx.Save(quota).Error
	})
}

// Quota returns the current quota record.
func (s *ImageService) Quota() (*models.ImageQuota, error) {
	return s.quotaLocked(s.db)
}

// RecalculateQuota rebuilds the usage record from the actual table contents.
func (s *ImageService) RecalculateQuota() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Model(&models.StoredImage{}).Select("COALESCE(SUM(size), 0)").Scan(&used).Error; err != nil {
			return err
		}
		quota, err := s.quotaLocked(tx)
		if err != nil {
			return err
		}
		quota.UsedBytes = used
		return tx.Save(quota).Error
	})
}

// DataURL resolves an image reference to a data URL for the fill executor.
func (s *ImageService) DataURL(imageUUID string) (string, bool) {
	image, err := s.Get(imageUUID)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("data:%s;base64,%s", image.MimeType, base64.StdEncoding.EncodeToString(image.Data)), true
}

func (s *ImageService) quotaLocked(tx *gorm.DB) (*models.ImageQuota, error) {
	var quota models.ImageQuota
	err := tx.First(&quota).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		quota = models.ImageQuota{LimitBytes: s.limitBytes}
		if err := tx.Create(&quota).Error; err != nil {
			return nil, err
		}
		return &quota, nil
	}
	if err != nil {
		return nil, err
	}
	if quota.LimitBytes != s.limitBytes {
		quota.LimitBytes = s.limitBytes
	}
	return &quota, nil
}
