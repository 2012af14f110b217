package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/engine"
	"github.com/formpilot/formpilot/internal/metrics"
	"github.com/formpilot/formpilot/internal/models"
)

var ErrMappingNotFound = errors.New("default mapping not found")

// DefaultMappingService owns the pattern -> rule table used for unattended
// fills.
type DefaultMappingService struct {
	db *gorm.DB
}

func NewDefaultMappingService(db *gorm.DB) *DefaultMappingService {
	return &DefaultMappingService{db: db}
}

// List returns all default mappings in insertion order.
func (s *DefaultMappingService) List() ([]models.DefaultMapping, error) {
	var mappings []models.DefaultMapping
	if err := s.db.Order("id asc").Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// Set records a rule as the default for a pattern, atomically replacing any
// prior mapping for that exact pattern string. One rule may be default for
// several distinct patterns.
func (s *DefaultMappingService) Set(pattern, ruleUUID string) (*models.DefaultMapping, error) {
	var rule models.Rule
	if err := s.db.Where("uuid = ?", ruleUUID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	mapping := models.DefaultMapping{Pattern: pattern, RuleUUID: ruleUUID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pattern = ?", pattern).Delete(&models.DefaultMapping{}).Error; err != nil {
			return err
		}
		return tx.Create(&mapping).Error
	})
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// Remove deletes the mapping for a pattern.
func (s *DefaultMappingService) Remove(pattern string) error {
	result := s.db.Where("pattern = ?", pattern).Delete(&models.DefaultMapping{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMappingNotFound
	}
	return nil
}

// Resolution is a chosen default rule together with the mapping that won.
type Resolution struct {
	Rule    *models.Rule           `json:"rule"`
	Mapping *models.DefaultMapping `json:"mapping"`
}

// Resolve picks the default rule for a URL, or nil when none applies.
//
// A candidate survives only while its rule exists, is enabled, is not
// archived, and still carries the exact pattern the mapping was recorded
// under; mappings left stale by a rule-pattern edit are excluded, not
// silently honored. Among survivors the highest specificity wins, ties going
// to the earliest-created mapping.
func (s *DefaultMappingService) Resolve(url string) (*Resolution, error) {
	mappings, err := s.List()
	if err != nil {
		return nil, err
	}

	var best *Resolution
	bestScore := -1
	for i := range mappings {
		mapping := &mappings[i]
		if !engine.MatchesURL(mapping.Pattern, url) {
			continue
		}

		var rule models.Rule
		if err := s.db.Where("uuid = ?", mapping.RuleUUID).First(&rule).Error; err != nil {
			continue
		}
		if !rule.Enabled || rule.Archived || rule.Pattern != mapping.Pattern {
			continue
		}

		if score := engine.PatternSpecificity(mapping.Pattern); score > bestScore {
			bestScore = score
			r := rule
			best = &Resolution{Rule: &r, Mapping: mapping}
		}
	}

	if best != nil {
		metrics.IncDefaultResolution()
	}
	return best, nil
}
