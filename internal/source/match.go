package source

import (
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"
)

var (
	nonAlnum  = regexp.MustCompile(`[^A-Z0-9]+`)
	codeParts = regexp.MustCompile(`^\d*([A-Z]+)0*(\d+)`)
)

// MatchConfidence grades how closely a search result code matches the wanted code.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // digits differ or prefix score < 0.85
	ConfidenceMedium                        // same digits, prefix score >= 0.85
	ConfidenceExact                         // same code after normalisation
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidenceMedium:
		return "medium"
	default:
		return "none"
	}
}

// MatchResult is the best candidate picked by MatchCode.
type MatchResult struct {
	Index      int // -1 when nothing matched
	Score      float64
	Confidence MatchConfidence
}

// MatchCode finds the candidate that names the same code as want. Codes are
// compared without separators, leading label digits or zero padding. When no
// candidate is exact, candidates with the same number are ranked by
// Jaro-Winkler similarity of their letter prefix.
func MatchCode(want string, candidates []string) MatchResult {
	best := MatchResult{Index: -1}
	wl, wd, ok := splitNormalized(want)
	if !ok {
		return best
	}

	for i, c := range candidates {
		cl, cd, ok := splitNormalized(c)
		if !ok || cd != wd {
			continue
		}
		if cl == wl {
			return MatchResult{Index: i, Score: 1, Confidence: ConfidenceExact}
		}
		score := float64(edlib.JaroWinklerSimilarity(wl, cl))
		if score > best.Score {
			best = MatchResult{Index: i, Score: score}
		}
	}

	if best.Index >= 0 && best.Score >= 0.85 {
		best.Confidence = ConfidenceMedium
		return best
	}
	return MatchResult{Index: -1}
}

func splitNormalized(code string) (letters, digits string, ok bool) {
	n := nonAlnum.ReplaceAllString(strings.ToUpper(code), "")
	m := codeParts.FindStringSubmatch(n)
	if m == nil {
		if n == "" {
			return "", "", false
		}
		return n, "", true
	}
	return m[1], m[2], true
}
