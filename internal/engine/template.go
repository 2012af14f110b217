package engine

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/formpilot/formpilot/internal/metrics"
)

// Placeholder type tags.
const (
	PlaceholderInc    = "inc"
	PlaceholderRandom = "random"
	PlaceholderPick   = "pick"
	PlaceholderDate   = "date"
	PlaceholderRegex  = "regex"
	PlaceholderTitle  = "title"
	PlaceholderDesc   = "desc"
)

const randomAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// The regex form is delimited by brackets so its pattern may contain '}'.
// All other placeholders take an optional colon-separated parameter that may
// not contain braces.
var placeholderPattern = regexp.MustCompile(`(?i)\{\{regex:\[(.*?)\]\}\}|\{\{([a-z]+)(?::([^{}]*))?\}\}`)

// placeholder is one parsed occurrence inside a template. Ephemeral.
type placeholder struct {
	Type     string
	Param    string
	HasParam bool
	Verbatim string
	Start    int
	End      int
}

var knownTypes = map[string]bool{
	PlaceholderInc:    true,
	PlaceholderRandom: true,
	PlaceholderPick:   true,
	PlaceholderDate:   true,
	PlaceholderRegex:  true,
	PlaceholderTitle:  true,
	PlaceholderDesc:   true,
}

// scanPlaceholders finds every placeholder in left-to-right order.
func scanPlaceholders(template string) []placeholder {
	matches := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]placeholder, 0, len(matches))
	for _, m := range matches {
		p := placeholder{Verbatim: template[m[0]:m[1]], Start: m[0], End: m[1]}
		if m[2] >= 0 {
			// {{regex:[PATTERN]}}
			p.Type = PlaceholderRegex
			p.Param = template[m[2]:m[3]]
			p.HasParam = true
		} else {
			p.Type = strings.ToLower(template[m[4]:m[5]])
			if m[6] >= 0 {
				p.Param = template[m[6]:m[7]]
				p.HasParam = true
			}
		}
		out = append(out, p)
	}
	return out
}

// HasPlaceholders reports whether the template contains at least one
// recognized placeholder. It is a pure predicate with no counter effects.
func HasPlaceholders(template string) bool {
	for _, p := range scanPlaceholders(template) {
		if knownTypes[p.Type] {
			return true
		}
	}
	return false
}

// ResolveTemplate substitutes every placeholder in the template and returns
// the resolved string along with the counter value left behind by any inc
// placeholders. A template without placeholders is returned unchanged.
func ResolveTemplate(template string, counter int) (string, int) {
	found := scanPlaceholders(template)
	if len(found) == 0 {
		return template, counter
	}

	var b strings.Builder
	last := 0
	for _, p := range found {
		b.WriteString(template[last:p.Start])
		value, next, known := resolvePlaceholder(p, counter)
		if known {
			counter = next
			b.WriteString(value)
			metrics.IncPlaceholder(p.Type)
		} else {
			// Unknown type: fail-soft, keep the verbatim text.
			b.WriteString(p.Verbatim)
		}
		last = p.End
	}
	b.WriteString(template[last:])
	return b.String(), counter
}

func resolvePlaceholder(p placeholder, counter int) (value string, next int, known bool) {
	switch p.Type {
	case PlaceholderInc:
		return resolveInc(p.Param, counter), counter + 1, true
	case PlaceholderRandom:
		return randomString(p.Param), counter, true
	case PlaceholderPick:
		return pickOne(p.Param), counter, true
	case PlaceholderDate:
		return formatDate(p.Param), counter, true
	case PlaceholderRegex:
		v, err := GenerateFromPattern(p.Param)
		if err != nil {
			return fmt.Sprintf("[invalid regex: %s]", p.Param), counter, true
		}
		return v, counter, true
	case PlaceholderTitle:
		min, max := parseBounds(p.Param)
		return GenerateTitle(min, max), counter, true
	case PlaceholderDesc:
		min, max := parseBounds(p.Param)
		return GenerateDescription(min, max), counter, true
	}
	return "", counter, false
}

// resolveInc emits the current counter, or offset+counter when a numeric
// offset is given. The counter itself advances by exactly one either way.
func resolveInc(param string, counter int) string {
	if n, err := strconv.Atoi(strings.TrimSpace(param)); err == nil {
		return strconv.Itoa(n + counter)
	}
	return strconv.Itoa(counter)
}

func randomString(param string) string {
	length := 8
	if n, err := strconv.Atoi(strings.TrimSpace(param)); err == nil && n >= 0 {
		length = n
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(randomAlphabet[rand.Intn(len(randomAlphabet))])
	}
	return b.String()
}

func pickOne(param string) string {
	if strings.TrimSpace(param) == "" {
		return ""
	}
	items := strings.Split(param, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items[rand.Intn(len(items))]
}

func parseBounds(param string) (min, max int) {
	parts := strings.SplitN(param, ",", 2)
	if len(parts) > 0 {
		min, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	}
	if len(parts) > 1 {
		max, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return min, max
}
