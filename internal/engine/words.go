package engine

import (
	"math/rand"
	"strings"
)

// Filler vocabulary for generated titles and descriptions.
var fillerWords = []string{
	"amber", "anchor", "atlas", "aurora", "basalt", "beacon", "birch", "breeze",
	"canvas", "cedar", "cipher", "cobalt", "comet", "coral", "crescent", "delta",
	"drift", "ember", "fable", "falcon", "fern", "flint", "garnet", "glade",
	"granite", "grove", "harbor", "hazel", "horizon", "indigo", "iris", "jasper",
	"juniper", "lantern", "ledger", "linen", "lumen", "maple", "marble", "meadow",
	"mesa", "mosaic", "nectar", "nimbus", "ochre", "onyx", "opal", "orchard",
	"pebble", "pine", "prairie", "quartz", "quill", "raven", "reef", "ridge",
	"river", "saffron", "sage", "sierra", "slate", "sparrow", "summit", "thistle",
	"timber", "tundra", "umber", "vale", "violet", "willow", "wren", "zephyr",
}

const ellipsis = "…"

// Word-boundary truncation is only taken when it keeps at least this share of
// the maximum length.
const truncateBoundaryRatio = 0.7

func randomWord() string {
	return fillerWords[rand.Intn(len(fillerWords))]
}

// titleFragment is a short sentence-like string with a leading capital and no
// trailing period.
func titleFragment() string {
	n := 3 + rand.Intn(5)
	words := make([]string, n)
	for i := range words {
		words[i] = randomWord()
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

// descFragment is a small paragraph of filler sentences.
func descFragment() string {
	sentences := 2 + rand.Intn(3)
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = titleFragment() + "."
	}
	return strings.Join(parts, " ")
}

// GenerateTitle produces a short sentence-like string fitted to the optional
// min/max character bounds. Zero bounds are unconstrained.
func GenerateTitle(min, max int) string {
	return fitToBounds(titleFragment, min, max)
}

// GenerateDescription produces paragraph-length filler text fitted to the
// optional min/max character bounds.
func GenerateDescription(min, max int) string {
	return fitToBounds(descFragment, min, max)
}

// fitToBounds appends space-joined fragments until min is met, then truncates
// to max preferring a word boundary, marking mid-content truncation with an
// ellipsis.
func fitToBounds(fragment func() string, min, max int) string {
	s := fragment()
	for min > 0 && len(s) < min {
		s += " " + fragment()
	}

	if max > 0 && len(s) > max {
		limit := max - len(ellipsis)
		if limit < 1 {
			return s[:max]
		}
		cut := strings.LastIndex(s[:limit], " ")
		if cut < int(truncateBoundaryRatio*float64(limit)) {
			cut = limit
		}
		s = strings.TrimRight(s[:cut], " .,") + ellipsis
	}
	return s
}
