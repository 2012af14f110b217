package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/formpilot/formpilot/internal/models"
)

// FillResult is the best-effort outcome of one fill invocation. Errors are
// diagnostics, never a reason to abort the caller.
type FillResult struct {
	FilledCount int      `json:"filled_count"`
	Errors      []string `json:"errors,omitempty"`
}

// ImageResolver turns a stored-image reference into a writable value (a data
// URL). The second return is false when the image does not exist.
type ImageResolver func(uuid string) (string, bool)

// Executor applies a rule's field mappings to a document and runs post-action
// chains. It holds no state between invocations; the counter is threaded
// through Fill explicitly.
type Executor struct {
	doc    Document
	images ImageResolver
}

// NewExecutor builds an executor over the given document query surface.
func NewExecutor(doc Document, images ImageResolver) *Executor {
	return &Executor{doc: doc, images: images}
}

// Fill applies every field mapping of the rule in declared order using the
// given variant's values, then the rule's repeat groups, then the rule-level
// action chain when every field succeeded. It returns the result plus the
// counter value left behind by inc placeholders; the caller persists the
// counter when it moved.
func (e *Executor) Fill(ctx context.Context, rule *models.Rule, variant *models.Variant) (FillResult, int) {
	counter := rule.IncrementCounter
	result := FillResult{}
	allFieldsOK := true

	for i := range rule.Fields {
		field := &rule.Fields[i]
		label := fieldLabel(field, i)

		el := e.locate(field.MatchKind, field.Selector)
		if el == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("field %s: element not found (selector %q)", label, field.Selector))
			allFieldsOK = false
			continue
		}

		value, next, err := e.resolveValue(field, variant, counter)
		counter = next
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("field %s: %v", label, err))
			allFieldsOK = false
			continue
		}

		if err := writeValue(el, value); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("field %s: write failed: %v", label, err))
			allFieldsOK = false
			continue
		}
		result.FilledCount++

		if len(field.PostActions) > 0 {
			if msg := e.runChain(ctx, field.PostActions, "field "+label); msg != "" {
				result.Errors = append(result.Errors, msg)
			}
		}
	}

	counter = e.fillRepeatGroups(rule, variant, counter, &result, &allFieldsOK)

	if allFieldsOK && len(rule.PostActions) > 0 {
		if msg := e.runChain(ctx, rule.PostActions, "rule"); msg != "" {
			result.Errors = append(result.Errors, msg)
		}
	}

	return result, counter
}

func (e *Executor) fillRepeatGroups(rule *models.Rule, variant *models.Variant, counter int, result *FillResult, allFieldsOK *bool) int {
	for gi := range rule.RepeatGroups {
		group := &rule.RepeatGroups[gi]
		rows := group.RowsFor(variant)
		if len(rows) == 0 {
			continue
		}

		scopes := e.doc.Rows(group.RowSelector)
		for ri, row := range rows {
			if ri >= len(scopes) {
				result.Errors = append(result.Errors, fmt.Sprintf("group %s: row container %d not found (selector %q)", group.Name, ri+1, group.RowSelector))
				*allFieldsOK = false
				break
			}
			counter = e.fillRow(scopes[ri], group, ri, row, counter, result, allFieldsOK)
		}
	}
	return counter
}

func (e *Executor) fillRow(scope Scope, group *models.RepeatGroup, rowIdx int, row models.RowData, counter int, result *FillResult, allFieldsOK *bool) int {
	for _, col := range group.Columns {
		el := findIn(scope, col.MatchKind, col.Selector)
		if el == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("group %s row %d: element not found (selector %q)", group.Name, rowIdx+1, col.Selector))
			*allFieldsOK = false
			continue
		}

		value := row[col.UUID]
		if HasPlaceholders(value) {
			value, counter = ResolveTemplate(value, counter)
		}

		if err := writeValue(el, value); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("group %s row %d: write failed: %v", group.Name, rowIdx+1, err))
			*allFieldsOK = false
			continue
		}
		result.FilledCount++
	}
	return counter
}

// locate resolves a field's target element. Selectors of kind id/name wrapped
// as /pattern/ switch to an attribute-regex scan over all input-like elements.
func (e *Executor) locate(kind models.MatchKind, selector string) Element {
	return findIn(e.doc, kind, selector)
}

func findIn(scope Scope, kind models.MatchKind, selector string) Element {
	if (kind == models.MatchID || kind == models.MatchName) && IsRegexPattern(selector) {
		re, err := regexp.Compile(selector[1 : len(selector)-1])
		if err != nil {
			return nil
		}
		return scope.FindByAttrPattern(string(kind), re)
	}
	return scope.Find(kind, selector)
}

// resolveValue computes the concrete value for one field. Only template-kind
// values thread the counter; title/desc kinds always generate fresh text from
// the field's length bounds.
func (e *Executor) resolveValue(field *models.FieldMapping, variant *models.Variant, counter int) (string, int, error) {
	raw := field.Value
	if variant != nil {
		if override, ok := variant.Values[field.UUID]; ok {
			raw = override
		}
	}

	switch field.ValueKind {
	case models.ValueTemplate:
		value, next := ResolveTemplate(raw, counter)
		return value, next, nil
	case models.ValueTitle:
		return GenerateTitle(field.MinLength, field.MaxLength), counter, nil
	case models.ValueDesc:
		return GenerateDescription(field.MinLength, field.MaxLength), counter, nil
	case models.ValueImage:
		if e.images != nil {
			if value, ok := e.images(field.ImageUUID); ok {
				return value, counter, nil
			}
		}
		return "", counter, fmt.Errorf("image %q not found", field.ImageUUID)
	default:
		return raw, counter, nil
	}
}

// writeValue assigns a value per the element's kind, then fires the
// input/change/blur notification events so host page listeners observe the
// change. Event dispatch failures are not write failures.
func writeValue(el Element, value string) error {
	var err error
	switch el.Kind() {
	case KindCheckbox:
		err = el.SetChecked(isTruthy(value))
	case KindRadio:
		err = el.SetChecked(el.Value() == value)
	case KindSelect:
		err = selectValue(el, value)
	default:
		err = el.SetValue(value)
	}
	if err != nil {
		return err
	}

	_ = el.Fire(EventInput)
	_ = el.Fire(EventChange)
	_ = el.Fire(EventBlur)
	return nil
}

// selectValue matches a select's option by value first, then by label, and
// falls back to a literal value assignment.
func selectValue(el Element, value string) error {
	options := el.Options()
	for _, opt := range options {
		if opt.Value == value {
			return el.SelectOption(opt.Value)
		}
	}
	for _, opt := range options {
		if opt.Label == value {
			return el.SelectOption(opt.Value)
		}
	}
	return el.SetValue(value)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func fieldLabel(field *models.FieldMapping, idx int) string {
	if field.Label != "" {
		return fmt.Sprintf("%q", field.Label)
	}
	return fmt.Sprintf("%d", idx+1)
}
