package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/models"
)

// ExportVersion is written into new exports; SupportedVersions is the closed
// set accepted on import.
const ExportVersion = 2

var SupportedVersions = map[int64]bool{1: true, 2: true}

var (
	ErrUnsupportedVersion = errors.New("unsupported export version")
	ErrInvalidPayload     = errors.New("invalid export payload")
)

// ExportPayload is the serialized rule exchange format.
type ExportPayload struct {
	Version    int           `json:"version"`
	ExportedAt int64         `json:"exported_at"` // epoch ms
	Rules      []models.Rule `json:"rules"`
}

// ExportService serializes rules out and validates them back in.
type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// Export snapshots all rules. Archived rules are included; collaborators may
// filter on their side.
func (s *ExportService) Export() (*ExportPayload, error) {
	var rules []models.Rule
	if err := s.db.Order("sort_order asc, id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return &ExportPayload{
		Version:    ExportVersion,
		ExportedAt: time.Now().UnixMilli(),
		Rules:      rules,
	}, nil
}

// ImportSummary reports what an import applied.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Rules    []string `json:"rules"`
}

// Import validates and applies an export payload all-or-nothing: any
// structural violation aborts with zero rules applied. Every rule and nested
// structure receives a fresh identity and timestamps are stamped to now.
func (s *ExportService) Import(raw []byte) (*ImportSummary, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidPayload)
	}

	// Probe the version before committing to a strict decode.
	version := gjson.GetBytes(raw, "version")
	if !version.Exists() {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidPayload)
	}
	if !SupportedVersions[version.Int()] {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version.Int())
	}

	var payload ExportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var violations []string
	for i := range payload.Rules {
		ensurePrimaryVariant(&payload.Rules[i])
		violations = append(violations, ValidateRuleAll(&payload.Rules[i], fmt.Sprintf("rules[%d]", i))...)
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("%w:\n%s", ErrInvalidPayload, strings.Join(violations, "\n"))
	}

	summary := &ImportSummary{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var maxOrder int64
		tx.Model(&models.Rule{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)

		now := time.Now()
		for i := range payload.Rules {
			rule := payload.Rules[i]
			rule.ID = 0
			rule.CollectionID = nil
			reidentify(&rule)
			rule.CreatedAt = now
			rule.UpdatedAt = now
			rule.SortOrder = int(maxOrder) + i + 1

			if err := tx.Create(&rule).Error; err != nil {
				return err
			}
			summary.Imported++
			summary.Rules = append(summary.Rules, rule.UUID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
