package engine

import (
	"fmt"
	"strings"
	"time"
)

const defaultDateFormat = "YYYY-MM-DD"

// dateTokens are substituted longest-first so YYYY is never partially
// consumed by YY. Two-letter tokens are zero-padded, one-letter are not.
var dateTokens = []struct {
	token  string
	render func(t time.Time) string
}{
	{"YYYY", func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"YY", func(t time.Time) string { return fmt.Sprintf("%02d", t.Year()%100) }},
	{"MM", func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"DD", func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"HH", func(t time.Time) string { return fmt.Sprintf("%02d", t.Hour()) }},
	{"mm", func(t time.Time) string { return fmt.Sprintf("%02d", t.Minute()) }},
	{"ss", func(t time.Time) string { return fmt.Sprintf("%02d", t.Second()) }},
	{"M", func(t time.Time) string { return fmt.Sprintf("%d", int(t.Month())) }},
	{"D", func(t time.Time) string { return fmt.Sprintf("%d", t.Day()) }},
	{"H", func(t time.Time) string { return fmt.Sprintf("%d", t.Hour()) }},
	{"m", func(t time.Time) string { return fmt.Sprintf("%d", t.Minute()) }},
	{"s", func(t time.Time) string { return fmt.Sprintf("%d", t.Second()) }},
}

func formatDate(format string) string {
	return formatDateAt(format, time.Now())
}

// formatDateAt walks the format string once, so substituted digits are never
// re-matched as tokens.
func formatDateAt(format string, now time.Time) string {
	if format == "" {
		format = defaultDateFormat
	}

	var b strings.Builder
	for i := 0; i < len(format); {
		matched := false
		for _, dt := range dateTokens {
			if strings.HasPrefix(format[i:], dt.token) {
				b.WriteString(dt.render(now))
				i += len(dt.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}
