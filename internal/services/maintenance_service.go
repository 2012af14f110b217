package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/logger"
	"github.com/formpilot/formpilot/internal/models"
)

// MaintenanceService runs scheduled housekeeping: fill-run retention pruning
// and image-quota recalculation.
type MaintenanceService struct {
	db            *gorm.DB
	images        *ImageService
	retentionDays int
	cron          *cron.Cron
}

func NewMaintenanceService(db *gorm.DB, images *ImageService, retentionDays int) *MaintenanceService {
	return &MaintenanceService{db: db, images: images, retentionDays: retentionDays}
}

// Start schedules the hourly maintenance job. Call Stop on shutdown.
func (s *MaintenanceService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@hourly", s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler without waiting for a running job.
func (s *MaintenanceService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce performs one maintenance sweep.
func (s *MaintenanceService) RunOnce() {
	pruned, err := s.PruneFillRuns()
	if err != nil {
		logger.Log().WithError(err).Warn("fill run pruning failed")
	} else if pruned > 0 {
		logger.WithFields(map[string]interface{}{"pruned": pruned}).Info("pruned old fill runs")
	}

	if s.images != nil {
		if err := s.images.RecalculateQuota(); err != nil {
			logger.Log().WithError(err).Warn("image quota recalculation failed")
		}
	}
}

// PruneFillRuns deletes fill runs older than the retention window.
func (s *MaintenanceService) PruneFillRuns() (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.FillRun{})
	return result.RowsAffected, result.Error
}
