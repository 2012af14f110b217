package services

import (
	"fmt"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/logger"
	"github.com/formpilot/formpilot/internal/models"
)

// NotificationService keeps internal notification rows and pushes external
// messages through configured shoutrrr providers.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// Internal notifications (DB)

func (s *NotificationService) Create(nType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		Type:    nType,
		Title:   title,
		Message: message,
		Read:    false,
	}
	result := s.DB.Create(notification)
	return notification, result.Error
}

func (s *NotificationService) List(unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(id string) error {
	return s.DB.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

func (s *NotificationService) MarkAllAsRead() error {
	return s.DB.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
}

// Providers

func (s *NotificationService) ListProviders() ([]models.NotificationProvider, error) {
	var providers []models.NotificationProvider
	result := s.DB.Order("created_at asc").Find(&providers)
	return providers, result.Error
}

func (s *NotificationService) CreateProvider(provider *models.NotificationProvider) error {
	provider.UUID = uuid.NewString()
	return s.DB.Create(provider).Error
}

func (s *NotificationService) UpdateProvider(providerUUID string, updates *models.NotificationProvider) (*models.NotificationProvider, error) {
	var provider models.NotificationProvider
	if err := s.DB.Where("uuid = ?", providerUUID).First(&provider).Error; err != nil {
		return nil, err
	}
	provider.Name = updates.Name
	provider.URL = updates.URL
	provider.Enabled = updates.Enabled
	provider.NotifyFills = updates.NotifyFills
	provider.NotifyImports = updates.NotifyImports
	provider.NotifyRules = updates.NotifyRules
	return &provider, s.DB.Save(&provider).Error
}

func (s *NotificationService) DeleteProvider(providerUUID string) error {
	return s.DB.Where("uuid = ?", providerUUID).Delete(&models.NotificationProvider{}).Error
}

// SendExternal pushes an event to every enabled provider that opted into the
// event type, and records an internal notification row. Push failures are
// logged, never surfaced.
func (s *NotificationService) SendExternal(eventType, title, message string, data map[string]interface{}) {
	nType := models.NotificationTypeInfo
	if eventType == "fill" {
		nType = models.NotificationTypeWarning
	}
	if _, err := s.Create(nType, title, message); err != nil {
		logger.Log().WithError(err).Warn("failed to store notification")
	}

	providers, err := s.ListProviders()
	if err != nil {
		logger.Log().WithError(err).Warn("failed to fetch notification providers")
		return
	}

	body := fmt.Sprintf("%s\n%s\n%s", title, message, time.Now().Format(time.RFC3339))
	for key, value := range data {
		body += fmt.Sprintf("\n%s: %v", key, value)
	}

	for _, provider := range providers {
		if !provider.Enabled || !providerWants(provider, eventType) {
			continue
		}
		go func(p models.NotificationProvider) {
			if err := shoutrrr.Send(p.URL, body); err != nil {
				logger.WithFields(map[string]interface{}{"provider": p.Name}).
					WithError(err).Warn("failed to push notification")
			}
		}(provider)
	}
}

func providerWants(p models.NotificationProvider, eventType string) bool {
	switch eventType {
	case "fill":
		return p.NotifyFills
	case "import":
		return p.NotifyImports
	case "rule":
		return p.NotifyRules
	}
	return false
}
