package models

import (
	"time"
)

// MatchKind selects how a field mapping locates its target element.
type MatchKind string

const (
	MatchID    MatchKind = "id"
	MatchName  MatchKind = "name"
	MatchQuery MatchKind = "querySelector"
)

// ValueKind selects how a field mapping's value is produced at fill time.
type ValueKind string

const (
	ValueStatic   ValueKind = "static"
	ValueTemplate ValueKind = "template"
	ValueTitle    ValueKind = "title"
	ValueDesc     ValueKind = "desc"
	ValueImage    ValueKind = "image"
)

// ActionKind enumerates the post-fill UI actions.
type ActionKind string

const (
	ActionClick    ActionKind = "click"
	ActionFocus    ActionKind = "focus"
	ActionPressKey ActionKind = "pressKey"
	ActionWait     ActionKind = "wait"
)

// PostAction is one step of an ordered, fail-stoppable action chain. The engine
// executes actions transiently and never mutates them.
type PostAction struct {
	UUID     string     `json:"uuid"`
	Kind     ActionKind `json:"kind"`
	Selector string     `json:"selector,omitempty"` // click / focus
	Key      string     `json:"key,omitempty"`      // pressKey
	DelayMs  int        `json:"delay_ms,omitempty"` // wait
}

// FieldMapping is one instruction to locate and populate a single form element.
// Selectors of kind id/name may be a /pattern/-delimited regular expression,
// signaling attribute-regex matching instead of exact lookup.
type FieldMapping struct {
	UUID        string       `json:"uuid"`
	Label       string       `json:"label,omitempty"`
	MatchKind   MatchKind    `json:"match_kind"`
	Selector    string       `json:"selector"`
	ValueKind   ValueKind    `json:"value_kind"`
	Value       string       `json:"value,omitempty"`
	MinLength   int          `json:"min_length,omitempty"` // title/desc only
	MaxLength   int          `json:"max_length,omitempty"` // title/desc only
	ImageUUID   string       `json:"image_uuid,omitempty"`
	PostActions []PostAction `json:"post_actions,omitempty"`
}

// RowData maps repeat-group column ids to concrete values for one row.
type RowData map[string]string

// RepeatColumn is one field definition inside a repeat group.
type RepeatColumn struct {
	UUID      string    `json:"uuid"`
	Label     string    `json:"label,omitempty"`
	MatchKind MatchKind `json:"match_kind"`
	Selector  string    `json:"selector"`
}

// RepeatGroup describes a repeated row container. DefaultRows holds the primary
// variant's row data; other variants carry theirs under Variant.Rows.
type RepeatGroup struct {
	UUID        string         `json:"uuid"`
	Name        string         `json:"name"`
	RowSelector string         `json:"row_selector"`
	Columns     []RepeatColumn `json:"columns"`
	DefaultRows []RowData      `json:"default_rows,omitempty"`
}

// Variant is an alternate value-set for the same rule structure. The first
// variant in a rule's list is the structurally authoritative primary.
type Variant struct {
	UUID   string               `json:"uuid"`
	Name   string               `json:"name"`
	Values map[string]string    `json:"values,omitempty"` // field mapping uuid -> override
	Rows   map[string][]RowData `json:"rows,omitempty"`   // repeat group uuid -> rows
}

// Rule is a named, URL-scoped set of field mappings plus optional post-fill
// actions and variants. Field ordering is execution order. IncrementCounter
// only ever moves forward via successful fills or an explicit reset to 0.
type Rule struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	UUID             string         `json:"uuid" gorm:"uniqueIndex"`
	Name             string         `json:"name"`
	Pattern          string         `json:"pattern" gorm:"index"`
	Enabled          bool           `json:"enabled" gorm:"default:true"`
	Archived         bool           `json:"archived" gorm:"default:false"`
	IncrementCounter int            `json:"increment_counter" gorm:"default:0"`
	SortOrder        int            `json:"sort_order"`
	CollectionID     *uint          `json:"collection_id,omitempty"`
	Fields           []FieldMapping `json:"fields" gorm:"serializer:json"`
	PostActions      []PostAction   `json:"post_actions,omitempty" gorm:"serializer:json"`
	RepeatGroups     []RepeatGroup  `json:"repeat_groups,omitempty" gorm:"serializer:json"`
	Variants         []Variant      `json:"variants" gorm:"serializer:json"`
	ActiveVariantID  string         `json:"active_variant_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// PrimaryVariant returns the structurally authoritative variant, nil when the
// rule carries no variants at all.
func (r *Rule) PrimaryVariant() *Variant {
	if len(r.Variants) == 0 {
		return nil
	}
	return &r.Variants[0]
}

// VariantByUUID returns the variant with the given id, or nil.
func (r *Rule) VariantByUUID(uuid string) *Variant {
	for i := range r.Variants {
		if r.Variants[i].UUID == uuid {
			return &r.Variants[i]
		}
	}
	return nil
}

// ActiveVariant returns the variant used for unattended fills, falling back to
// the primary when ActiveVariantID no longer resolves.
func (r *Rule) ActiveVariant() *Variant {
	if v := r.VariantByUUID(r.ActiveVariantID); v != nil {
		return v
	}
	return r.PrimaryVariant()
}

// RowsFor returns the row data a variant supplies for a repeat group, falling
// back to the group's default rows.
func (g *RepeatGroup) RowsFor(v *Variant) []RowData {
	if v != nil {
		if rows, ok := v.Rows[g.UUID]; ok {
			return rows
		}
	}
	return g.DefaultRows
}
