// Package scoring computes heuristic feasibility and similarity scores
// for submitted ideas.
package scoring

import (
	"math"
	"strings"
	"unicode"
)

// Similarity compares two texts by the Jaccard index of their
// significant token sets and returns a percentage in [0,100].
// Tokens of three characters or fewer are ignored.
func Similarity(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return int(math.Round(float64(intersection) / float64(union) * 100))
}

// PlagiarismThreshold is the similarity percentage at or above which an
// idea is flagged.
const PlagiarismThreshold = 70

// IsPlagiarismSuspect reports whether a similarity score trips the flag.
func IsPlagiarismSuspect(similarity int) bool {
	return similarity >= PlagiarismThreshold
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range tokenize(text) {
		if len(token) > 3 {
			set[token] = struct{}{}
		}
	}
	return set
}

// tokenize lowercases the text and splits it on anything that is not a
// letter or digit, so punctuation never leaks into tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
