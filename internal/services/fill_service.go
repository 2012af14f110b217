package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/engine"
	"github.com/formpilot/formpilot/internal/logger"
	"github.com/formpilot/formpilot/internal/metrics"
	"github.com/formpilot/formpilot/internal/models"
)

// FillService orchestrates fill execution: rule/variant selection, executor
// invocation, counter write-back, run history, metrics and notifications.
type FillService struct {
	db            *gorm.DB
	images        *ImageService
	notifications *NotificationService
}

func NewFillService(db *gorm.DB, images *ImageService, notifications *NotificationService) *FillService {
	return &FillService{db: db, images: images, notifications: notifications}
}

// FillOutcome is the service-level result of one fill.
type FillOutcome struct {
	engine.FillResult
	RuleUUID    string `json:"rule_uuid"`
	VariantUUID string `json:"variant_uuid"`
	NewCounter  int    `json:"new_counter"`
	DurationMs  int64  `json:"duration_ms"`
}

// Fill runs one rule against a document. An empty variantUUID selects the
// rule's active variant. Errors inside the fill come back as data on the
// outcome; only infrastructure failures return an error.
func (s *FillService) Fill(ctx context.Context, doc engine.Document, rule *models.Rule, variantUUID, url string) (*FillOutcome, error) {
	variant := rule.ActiveVariant()
	if variantUUID != "" {
		if variant = rule.VariantByUUID(variantUUID); variant == nil {
			return nil, ErrVariantNotFound
		}
	}

	var resolver engine.ImageResolver
	if s.images != nil {
		resolver = s.images.DataURL
	}

	start := time.Now()
	executor := engine.NewExecutor(doc, resolver)
	result, newCounter := executor.Fill(ctx, rule, variant)
	duration := time.Since(start)

	outcome := &FillOutcome{
		FillResult: result,
		RuleUUID:   rule.UUID,
		NewCounter: newCounter,
		DurationMs: duration.Milliseconds(),
	}
	if variant != nil {
		outcome.VariantUUID = variant.UUID
	}

	// Counter write-back is fire-and-forget: the fill already completed, so a
	// persistence failure is logged, never surfaced.
	if newCounter != rule.IncrementCounter {
		if err := s.db.Model(&models.Rule{}).Where("uuid = ?", rule.UUID).
			Update("increment_counter", newCounter).Error; err != nil {
			logger.WithFields(map[string]interface{}{"rule": rule.UUID}).
				WithError(err).Error("failed to persist increment counter")
		}
	}

	s.recordRun(rule, outcome, url, duration)

	metrics.IncFill()
	metrics.AddFieldsFilled(result.FilledCount)
	metrics.AddFillErrors(len(result.Errors))

	if len(result.Errors) > 0 && s.notifications != nil {
		s.notifications.SendExternal("fill", "Fill completed with errors",
			fmt.Sprintf("Rule %q filled %d field(s) with %d error(s)", rule.Name, result.FilledCount, len(result.Errors)),
			map[string]interface{}{
				"Rule":   rule.Name,
				"URL":    url,
				"Filled": result.FilledCount,
				"Errors": result.Errors,
			})
	}

	return outcome, nil
}

func (s *FillService) recordRun(rule *models.Rule, outcome *FillOutcome, url string, duration time.Duration) {
	run := models.FillRun{
		UUID:        uuid.NewString(),
		RuleUUID:    rule.UUID,
		VariantUUID: outcome.VariantUUID,
		URL:         url,
		FilledCount: outcome.FilledCount,
		Errors:      outcome.Errors,
		DurationMs:  duration.Milliseconds(),
	}
	if err := s.db.Create(&run).Error; err != nil {
		logger.Log().WithError(err).Warn("failed to record fill run")
	}
}

// History returns the most recent fill runs for a rule, newest first.
func (s *FillService) History(ruleUUID string, limit int) ([]models.FillRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []models.FillRun
	query := s.db.Order("id desc").Limit(limit)
	if ruleUUID != "" {
		query = query.Where("rule_uuid = ?", ruleUUID)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
