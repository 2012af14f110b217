package engine

import (
	"math/rand"
	"regexp/syntax"
	"strings"
)

// maxRepeat caps unbounded quantifiers so generation stays bounded no matter
// what pattern the rule author wrote.
const maxRepeat = 10

// GenerateFromPattern produces a string matching the given regular expression,
// with * and + capped at maxRepeat repetitions. Invalid patterns return the
// parse error to the caller.
func GenerateFromPattern(pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	generateNode(re, &b)
	return b.String(), nil
}

func generateNode(re *syntax.Regexp, b *strings.Builder) {
	switch re.Op {
	case syntax.OpLiteral:
		b.WriteString(string(re.Rune))
	case syntax.OpCharClass:
		if r, ok := pickClassRune(re.Rune); ok {
			b.WriteRune(r)
		}
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		b.WriteByte(randomAlphabet[rand.Intn(len(randomAlphabet))])
	case syntax.OpCapture:
		generateNode(re.Sub[0], b)
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			generateNode(sub, b)
		}
	case syntax.OpAlternate:
		generateNode(re.Sub[rand.Intn(len(re.Sub))], b)
	case syntax.OpStar:
		repeatNode(re.Sub[0], rand.Intn(maxRepeat+1), b)
	case syntax.OpPlus:
		repeatNode(re.Sub[0], 1+rand.Intn(maxRepeat), b)
	case syntax.OpQuest:
		if rand.Intn(2) == 1 {
			generateNode(re.Sub[0], b)
		}
	case syntax.OpRepeat:
		min, max := re.Min, re.Max
		if max < 0 || max-min > maxRepeat {
			max = min + maxRepeat
		}
		repeatNode(re.Sub[0], min+rand.Intn(max-min+1), b)
	}
	// Anchors, word boundaries and empty matches generate nothing.
}

func repeatNode(re *syntax.Regexp, n int, b *strings.Builder) {
	for i := 0; i < n; i++ {
		generateNode(re, b)
	}
}

// pickClassRune picks a random rune from a character class. Ranges are given
// as [lo, hi] pairs. Printable ASCII is preferred so negated classes do not
// spray arbitrary code points into form values.
func pickClassRune(pairs []rune) (rune, bool) {
	if len(pairs) == 0 {
		return 0, false
	}

	type span struct{ lo, hi rune }
	printable := make([]span, 0, len(pairs)/2)
	all := make([]span, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		lo, hi := pairs[i], pairs[i+1]
		all = append(all, span{lo, hi})
		if clo, chi := maxRune(lo, 0x20), minRune(hi, 0x7e); clo <= chi {
			printable = append(printable, span{clo, chi})
		}
	}

	spans := printable
	if len(spans) == 0 {
		spans = all
	}
	s := spans[rand.Intn(len(spans))]
	return s.lo + rune(rand.Intn(int(s.hi-s.lo)+1)), true
}

func maxRune(a, b rune) rune {
	if a > b {
		return a
	}
	return b
}

func minRune(a, b rune) rune {
	if a < b {
		return a
	}
	return b
}
