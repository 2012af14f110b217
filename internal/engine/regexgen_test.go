package engine

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFromPattern(t *testing.T) {
	patterns := []string{
		`abc`,
		`[a-z]{5}`,
		`[A-Z]{2}-\d{4}`,
		`(foo|bar|baz)`,
		`\d+`,
		`[0-9a-f]{8}-[0-9a-f]{4}`,
		`colou?r`,
		`a*b`,
		`(ab){2,4}`,
		`\w\w\w`,
	}

	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			re := regexp.MustCompile(`^(?:` + pattern + `)$`)
			for i := 0; i < 10; i++ {
				out, err := GenerateFromPattern(pattern)
				require.NoError(t, err)
				assert.True(t, re.MatchString(out), "generated %q does not match %q", out, pattern)
			}
		})
	}
}

func TestGenerateFromPatternInvalid(t *testing.T) {
	_, err := GenerateFromPattern(`(`)
	assert.Error(t, err)
}

func TestGenerateFromPatternRepeatCap(t *testing.T) {
	// Unbounded repetitions are capped, never infinite.
	for i := 0; i < 20; i++ {
		out, err := GenerateFromPattern(`a+`)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(out), 1)
		assert.LessOrEqual(t, len(out), maxRepeat)
	}

	for i := 0; i < 20; i++ {
		out, err := GenerateFromPattern(`x{2,}`)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(out), 2)
		assert.LessOrEqual(t, len(out), 2+maxRepeat)
	}
}
