package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/models"
)

var (
	ErrRuleNotFound       = errors.New("rule not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrPrimaryVariant     = errors.New("the primary variant cannot be removed")
	ErrInvalidMatchKind   = errors.New("invalid match kind")
	ErrInvalidValueKind   = errors.New("invalid value kind")
	ErrInvalidActionKind  = errors.New("invalid action kind")
	ErrCollectionNotFound = errors.New("collection not found")
)

var validMatchKinds = map[models.MatchKind]bool{
	models.MatchID:    true,
	models.MatchName:  true,
	models.MatchQuery: true,
}

var validValueKinds = map[models.ValueKind]bool{
	models.ValueStatic:   true,
	models.ValueTemplate: true,
	models.ValueTitle:    true,
	models.ValueDesc:     true,
	models.ValueImage:    true,
}

var validActionKinds = map[models.ActionKind]bool{
	models.ActionClick:    true,
	models.ActionFocus:    true,
	models.ActionPressKey: true,
	models.ActionWait:     true,
}

// RuleService owns rule CRUD and variant bookkeeping.
type RuleService struct {
	db *gorm.DB
}

func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{db: db}
}

// Create validates and stores a new rule, assigning identities to the rule and
// every nested structure and guaranteeing a primary variant exists.
func (s *RuleService) Create(rule *models.Rule) error {
	rule.UUID = uuid.NewString()
	assignIdentities(rule)
	ensurePrimaryVariant(rule)
	rule.IncrementCounter = 0

	if err := ValidateRule(rule); err != nil {
		return err
	}

	var maxOrder int64
	s.db.Model(&models.Rule{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)
	rule.SortOrder = int(maxOrder) + 1

	return s.db.Create(rule).Error
}

// GetByUUID retrieves a rule by UUID.
func (s *RuleService) GetByUUID(ruleUUID string) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.Where("uuid = ?", ruleUUID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// List retrieves rules ordered by their explicit sort order. Archived rules
// are excluded unless requested.
func (s *RuleService) List(includeArchived bool) ([]models.Rule, error) {
	var rules []models.Rule
	query := s.db.Order("sort_order asc, id asc")
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}
	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Update applies field/structure updates to an existing rule. The increment
// counter is not client-writable here; it only moves via fills or ResetCounter.
func (s *RuleService) Update(ruleUUID string, updates *models.Rule) (*models.Rule, error) {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return nil, err
	}

	rule.Name = updates.Name
	rule.Pattern = updates.Pattern
	rule.Enabled = updates.Enabled
	rule.CollectionID = updates.CollectionID
	rule.Fields = updates.Fields
	rule.PostActions = updates.PostActions
	rule.RepeatGroups = updates.RepeatGroups
	rule.Variants = updates.Variants
	rule.ActiveVariantID = updates.ActiveVariantID

	assignIdentities(rule)
	ensurePrimaryVariant(rule)

	if err := ValidateRule(rule); err != nil {
		return nil, err
	}

	return rule, s.db.Save(rule).Error
}

// Archive marks a rule archived; archived rules never resolve as defaults.
func (s *RuleService) Archive(ruleUUID string, archived bool) (*models.Rule, error) {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return nil, err
	}
	rule.Archived = archived
	return rule, s.db.Save(rule).Error
}

// Delete removes a rule and any default mappings pointing at it.
func (s *RuleService) Delete(ruleUUID string) error {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rule_uuid = ?", rule.UUID).Delete(&models.DefaultMapping{}).Error; err != nil {
			return err
		}
		return tx.Delete(rule).Error
	})
}

// Duplicate deep-copies a rule under fresh identities with a reset counter.
func (s *RuleService) Duplicate(ruleUUID string) (*models.Rule, error) {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return nil, err
	}

	copy := *rule
	copy.ID = 0
	copy.Name = rule.Name + " (copy)"
	reidentify(&copy)
	copy.IncrementCounter = 0

	var maxOrder int64
	s.db.Model(&models.Rule{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)
	copy.SortOrder = int(maxOrder) + 1

	if err := s.db.Create(&copy).Error; err != nil {
		return nil, err
	}
	return &copy, nil
}

// Reorder rewrites the sort order to match the given UUID sequence. Rules not
// named keep their relative order after the named ones.
func (s *RuleService) Reorder(orderedUUIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedUUIDs {
			if err := tx.Model(&models.Rule{}).Where("uuid = ?", id).Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetCounter sets a rule's increment counter back to zero, the only
// permitted decrease.
func (s *RuleService) ResetCounter(ruleUUID string) error {
	result := s.db.Model(&models.Rule{}).Where("uuid = ?", ruleUUID).Update("increment_counter", 0)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// AddVariant appends a named variant sharing the primary's structure.
func (s *RuleService) AddVariant(ruleUUID, name string) (*models.Rule, error) {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return nil, err
	}

	variant := models.Variant{
		UUID:   uuid.NewString(),
		Name:   name,
		Values: map[string]string{},
	}
	rule.Variants = append(rule.Variants, variant)
	return rule, s.db.Save(rule).Error
}

// UpdateVariant replaces a variant's name, values and row data.
func (s *RuleService) UpdateVariant(ruleUUID, variantUUID string, updates models.Variant) (*models.Rule, error) {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return nil, err
	}

	v := rule.VariantByUUID(variantUUID)
	if v == nil {
		return nil, ErrVariantNotFound
	}
	if updates.Name != "" {
		v.Name = updates.Name
	}
	v.Values = updates.Values
	v.Rows = updates.Rows

	return rule, s.db.Save(rule).Error
}

// DeleteVariant removes a non-primary variant. When the active variant is
// removed, the primary becomes active.
func (s *RuleService) DeleteVariant(ruleUUID, variantUUID string) (*models.Rule, error) {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range rule.Variants {
		if rule.Variants[i].UUID == variantUUID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrVariantNotFound
	}
	if idx == 0 {
		return nil, ErrPrimaryVariant
	}

	rule.Variants = append(rule.Variants[:idx], rule.Variants[idx+1:]...)
	if rule.ActiveVariantID == variantUUID {
		rule.ActiveVariantID = rule.Variants[0].UUID
	}
	return rule, s.db.Save(rule).Error
}

// SetActiveVariant marks the variant used for unattended fills.
func (s *RuleService) SetActiveVariant(ruleUUID, variantUUID string) (*models.Rule, error) {
	rule, err := s.GetByUUID(ruleUUID)
	if err != nil {
		return nil, err
	}
	if rule.VariantByUUID(variantUUID) == nil {
		return nil, ErrVariantNotFound
	}
	rule.ActiveVariantID = variantUUID
	return rule, s.db.Save(rule).Error
}

// Collections

func (s *RuleService) ListCollections() ([]models.Collection, error) {
	var collections []models.Collection
	if err := s.db.Order("name asc").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

func (s *RuleService) CreateCollection(name string) (*models.Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("collection name is required")
	}
	collection := models.Collection{UUID: uuid.NewString(), Name: name}
	if err := s.db.Create(&collection).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

func (s *RuleService) DeleteCollection(collectionUUID string) error {
	var collection models.Collection
	if err := s.db.Where("uuid = ?", collectionUUID).First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Rule{}).Where("collection_id = ?", collection.ID).Update("collection_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&collection).Error
	})
}

// ValidateRule checks a rule's structure and returns the first violation.
func ValidateRule(rule *models.Rule) error {
	violations := ValidateRuleAll(rule, "rule")
	if len(violations) > 0 {
		return errors.New(violations[0])
	}
	return nil
}

// ValidateRuleAll collects every structural violation as "path: message"
// strings, prefixing paths with the given root.
func ValidateRuleAll(rule *models.Rule, root string) []string {
	var out []string
	violation := func(path, msg string) {
		out = append(out, fmt.Sprintf("%s: %s", path, msg))
	}

	if strings.TrimSpace(rule.Name) == "" {
		violation(root+".name", "name is required")
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		violation(root+".pattern", "url pattern is required")
	}
	if rule.IncrementCounter < 0 {
		violation(root+".increment_counter", "counter must not be negative")
	}

	for i := range rule.Fields {
		f := &rule.Fields[i]
		path := fmt.Sprintf("%s.fields[%d]", root, i)
		if strings.TrimSpace(f.Selector) == "" {
			violation(path+".selector", "selector is required")
		}
		if !validMatchKinds[f.MatchKind] {
			violation(path+".match_kind", fmt.Sprintf("unknown match kind %q", f.MatchKind))
		}
		if !validValueKinds[f.ValueKind] {
			violation(path+".value_kind", fmt.Sprintf("unknown value kind %q", f.ValueKind))
		}
		if f.MinLength > 0 && f.MaxLength > 0 && f.MinLength > f.MaxLength {
			violation(path+".min_length", "min length exceeds max length")
		}
		out = append(out, validateActions(f.PostActions, path+".post_actions")...)
	}

	out = append(out, validateActions(rule.PostActions, root+".post_actions")...)

	if len(rule.Variants) == 0 {
		violation(root+".variants", "at least one variant is required")
	} else if rule.ActiveVariantID != "" && rule.VariantByUUID(rule.ActiveVariantID) == nil {
		violation(root+".active_variant_id", "active variant does not exist")
	}

	for gi := range rule.RepeatGroups {
		g := &rule.RepeatGroups[gi]
		path := fmt.Sprintf("%s.repeat_groups[%d]", root, gi)
		if strings.TrimSpace(g.RowSelector) == "" {
			violation(path+".row_selector", "row selector is required")
		}
		for ci := range g.Columns {
			if !validMatchKinds[g.Columns[ci].MatchKind] {
				violation(fmt.Sprintf("%s.columns[%d].match_kind", path, ci), fmt.Sprintf("unknown match kind %q", g.Columns[ci].MatchKind))
			}
		}
	}

	return out
}

func validateActions(actions []models.PostAction, path string) []string {
	var out []string
	for i := range actions {
		a := &actions[i]
		p := fmt.Sprintf("%s[%d]", path, i)
		if !validActionKinds[a.Kind] {
			out = append(out, fmt.Sprintf("%s.kind: unknown action kind %q", p, a.Kind))
			continue
		}
		switch a.Kind {
		case models.ActionClick, models.ActionFocus:
			if strings.TrimSpace(a.Selector) == "" {
				out = append(out, fmt.Sprintf("%s.selector: selector is required", p))
			}
		case models.ActionPressKey:
			if strings.TrimSpace(a.Key) == "" {
				out = append(out, fmt.Sprintf("%s.key: key is required", p))
			}
		}
	}
	return out
}

// assignIdentities fills in missing UUIDs on nested structures.
func assignIdentities(rule *models.Rule) {
	for i := range rule.Fields {
		if rule.Fields[i].UUID == "" {
			rule.Fields[i].UUID = uuid.NewString()
		}
		assignActionIdentities(rule.Fields[i].PostActions)
	}
	assignActionIdentities(rule.PostActions)
	for gi := range rule.RepeatGroups {
		g := &rule.RepeatGroups[gi]
		if g.UUID == "" {
			g.UUID = uuid.NewString()
		}
		for ci := range g.Columns {
			if g.Columns[ci].UUID == "" {
				g.Columns[ci].UUID = uuid.NewString()
			}
		}
	}
	for vi := range rule.Variants {
		if rule.Variants[vi].UUID == "" {
			rule.Variants[vi].UUID = uuid.NewString()
		}
	}
}

func assignActionIdentities(actions []models.PostAction) {
	for i := range actions {
		if actions[i].UUID == "" {
			actions[i].UUID = uuid.NewString()
		}
	}
}

// ensurePrimaryVariant guarantees a variant list and a resolvable active id.
func ensurePrimaryVariant(rule *models.Rule) {
	if len(rule.Variants) == 0 {
		rule.Variants = []models.Variant{{
			UUID:   uuid.NewString(),
			Name:   "Default",
			Values: map[string]string{},
		}}
	}
	if rule.VariantByUUID(rule.ActiveVariantID) == nil {
		rule.ActiveVariantID = rule.Variants[0].UUID
	}
}

// reidentify regenerates every identity in a rule, remapping variant value
// maps and repeat-group row keys onto the new ids. Used by duplication and
// import, where incoming ids are never reused.
func reidentify(rule *models.Rule) {
	rule.UUID = uuid.NewString()

	fieldIDs := make(map[string]string, len(rule.Fields))
	for i := range rule.Fields {
		old := rule.Fields[i].UUID
		rule.Fields[i].UUID = uuid.NewString()
		if old != "" {
			fieldIDs[old] = rule.Fields[i].UUID
		}
		reidentifyActions(rule.Fields[i].PostActions)
	}
	reidentifyActions(rule.PostActions)

	groupIDs := make(map[string]string, len(rule.RepeatGroups))
	columnIDs := map[string]string{}
	for gi := range rule.RepeatGroups {
		g := &rule.RepeatGroups[gi]
		old := g.UUID
		g.UUID = uuid.NewString()
		if old != "" {
			groupIDs[old] = g.UUID
		}
		for ci := range g.Columns {
			oldCol := g.Columns[ci].UUID
			g.Columns[ci].UUID = uuid.NewString()
			if oldCol != "" {
				columnIDs[oldCol] = g.Columns[ci].UUID
			}
		}
		g.DefaultRows = remapRows(g.DefaultRows, columnIDs)
	}

	for vi := range rule.Variants {
		v := &rule.Variants[vi]
		old := v.UUID
		v.UUID = uuid.NewString()
		if rule.ActiveVariantID == old {
			rule.ActiveVariantID = v.UUID
		}

		if len(v.Values) > 0 {
			values := make(map[string]string, len(v.Values))
			for fieldID, val := range v.Values {
				if newID, ok := fieldIDs[fieldID]; ok {
					values[newID] = val
				}
			}
			v.Values = values
		}
		if len(v.Rows) > 0 {
			rows := make(map[string][]models.RowData, len(v.Rows))
			for groupID, rowData := range v.Rows {
				if newID, ok := groupIDs[groupID]; ok {
					rows[newID] = remapRows(rowData, columnIDs)
				}
			}
			v.Rows = rows
		}
	}

	if rule.VariantByUUID(rule.ActiveVariantID) == nil && len(rule.Variants) > 0 {
		rule.ActiveVariantID = rule.Variants[0].UUID
	}
}

func reidentifyActions(actions []models.PostAction) {
	for i := range actions {
		actions[i].UUID = uuid.NewString()
	}
}

func remapRows(rows []models.RowData, columnIDs map[string]string) []models.RowData {
	if len(rows) == 0 {
		return rows
	}
	out := make([]models.RowData, len(rows))
	for i, row := range rows {
		mapped := make(models.RowData, len(row))
		for colID, val := range row {
			if newID, ok := columnIDs[colID]; ok {
				mapped[newID] = val
			} else {
				mapped[colID] = val
			}
		}
		out[i] = mapped
	}
	return out
}
