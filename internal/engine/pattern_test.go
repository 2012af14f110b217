package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesURL(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		url     string
		want    bool
	}{
		{"star matches everything", "*", "https://anything.example/x", true},
		{"all_urls matches everything", "<all_urls>", "ftp://weird", true},
		{"empty pattern matches nothing", "", "https://example.com", false},
		{"exact literal", "https://example.com/sell", "https://example.com/sell", true},
		{"literal is anchored", "https://example.com/sell", "https://example.com/sell/item", false},
		{"trailing wildcard", "https://example.com/sell/*", "https://example.com/sell/item/42", true},
		{"host wildcard", "https://*.example.org/register", "https://app.example.org/register", true},
		{"host wildcard needs the suffix", "https://*.example.org/register", "https://example.net/register", false},
		{"scheme wildcard", "*://example.com/", "http://example.com/", true},
		{"case-insensitive", "https://Example.COM/Sell", "https://example.com/sell", true},
		{"dots are literal", "https://exampleXcom/", "https://example.com/", false},
		{"regex form", `/checkout/`, "https://shop.test/checkout/step-1", true},
		{"regex form unanchored", `/\/item\/\d+$/`, "https://shop.test/item/99", true},
		{"regex form no match", `/\/item\/\d+$/`, "https://shop.test/item/", false},
		{"invalid regex matches nothing", `/(/`, "https://shop.test/(", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchesURL(tc.pattern, tc.url))
		})
	}
}

func TestIsRegexPattern(t *testing.T) {
	assert.True(t, IsRegexPattern("/abc/"))
	assert.False(t, IsRegexPattern("/a"), "too short")
	assert.False(t, IsRegexPattern("//"), "delimiters only")
	assert.False(t, IsRegexPattern("https://example.com/"))
}

func TestPatternSpecificityOrdering(t *testing.T) {
	t.Run("universal patterns score zero", func(t *testing.T) {
		assert.Equal(t, 0, PatternSpecificity("*"))
		assert.Equal(t, 0, PatternSpecificity("<all_urls>"))
	})

	t.Run("literal path outranks wildcard path", func(t *testing.T) {
		literal := PatternSpecificity("https://example.com/sell/item")
		wildcard := PatternSpecificity("https://example.com/sell/*")
		assert.Greater(t, literal, wildcard)
	})

	t.Run("anchored host outranks wildcard host", func(t *testing.T) {
		anchored := PatternSpecificity("https://app.example.com/*")
		floating := PatternSpecificity("https://*.example.com/*")
		assert.Greater(t, anchored, floating)
	})

	t.Run("more path segments score higher", func(t *testing.T) {
		deep := PatternSpecificity("https://example.com/a/b/c")
		shallow := PatternSpecificity("https://example.com/a")
		assert.Greater(t, deep, shallow)
	})

	t.Run("concrete scheme outranks scheme wildcard", func(t *testing.T) {
		https := PatternSpecificity("https://example.com/x")
		any := PatternSpecificity("*://example.com/x")
		assert.Greater(t, https, any)
	})

	t.Run("regex outranks every wildcard pattern", func(t *testing.T) {
		regex := PatternSpecificity("/x/")
		mostSpecific := PatternSpecificity("https://deep.sub.example.com/very/long/literal/path")
		assert.Greater(t, regex, mostSpecific)
	})

	t.Run("longer regex outranks shorter regex", func(t *testing.T) {
		assert.Greater(t, PatternSpecificity(`/\/item\/\d+/`), PatternSpecificity("/x/"))
	})
}
