package engine

import (
	"regexp"
	"strings"
)

// Patterns matching every URL.
const (
	PatternAny     = "*"
	PatternAllURLs = "<all_urls>"
)

// Specificity weights. Regex patterns occupy their own tier above every
// wildcard-style pattern and rank among themselves by raw pattern length.
const (
	specificityRegexBase   = 10000
	specificityScheme      = 100
	specificityHostAnchor  = 200
	specificityHostLabel   = 10
	specificityPathSegment = 50
	specificityLiteralPath = 500
)

// IsRegexPattern reports whether the pattern is the /EXPR/ raw-regex form.
func IsRegexPattern(pattern string) bool {
	return len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/")
}

// MatchesURL decides whether a URL matches a rule's pattern. Wildcard patterns
// are anchored and case-insensitive, /EXPR/ patterns are tested raw, and an
// invalid expression matches nothing.
func MatchesURL(pattern, url string) bool {
	if pattern == PatternAny || pattern == PatternAllURLs {
		return true
	}
	if pattern == "" {
		return false
	}

	if IsRegexPattern(pattern) {
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			return false
		}
		return re.MatchString(url)
	}

	escaped := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, `.*`)
	re, err := regexp.Compile(`(?i)^` + escaped + `$`)
	if err != nil {
		return false
	}
	return re.MatchString(url)
}

// PatternSpecificity computes a monotone ranking for a pattern, used only to
// order candidates relative to each other.
func PatternSpecificity(pattern string) int {
	if pattern == PatternAny || pattern == PatternAllURLs || pattern == "" {
		return 0
	}

	if IsRegexPattern(pattern) {
		return specificityRegexBase + len(pattern)
	}

	score := 0
	rest := pattern
	if i := strings.Index(pattern, "://"); i >= 0 {
		if pattern[:i] != "*" {
			score += specificityScheme
		}
		rest = pattern[i+3:]
	}

	segments := strings.Split(rest, "/")
	host := segments[0]
	if host != "" {
		if !strings.HasPrefix(host, "*") {
			score += specificityHostAnchor
		}
		score += specificityHostLabel * strings.Count(host, ".")
	}

	literalPath := true
	for _, seg := range segments[1:] {
		if seg != "" {
			score += specificityPathSegment
		}
		if strings.Contains(seg, "*") {
			literalPath = false
		}
	}
	if literalPath {
		score += specificityLiteralPath
	}

	return score
}
