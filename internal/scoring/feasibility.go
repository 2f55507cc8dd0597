package scoring

import "strings"

// popularDomains earn a flat bonus when the idea's domain matches.
var popularDomains = map[string]struct{}{
	"artificial intelligence": {},
	"machine learning":        {},
	"data science":            {},
	"cyber security":          {},
	"cloud computing":         {},
}

// keywords contribute 5 points per distinct hit, capped at 30.
// Single words must match whole tokens so that short keywords like
// "ai" do not fire inside unrelated words.
var keywords = []string{
	"ai",
	"ml",
	"nlp",
	"deep learning",
	"neural network",
	"blockchain",
	"iot",
	"api",
	"automation",
}

// datasetWords contribute 4 points per distinct hit, uncapped before
// the final clamp.
var datasetWords = []string{
	"dataset",
	"kaggle",
	"open data",
	"github",
	"public api",
	"research paper",
}

// Feasibility estimates how actionable an idea is from its description
// and domain, returning an integer in [0,100]. The heuristic is
// deliberately simple: description-length bands, a popular-domain
// bonus, and keyword hits.
func Feasibility(description, domain string) int {
	score := 0
	lowered := strings.ToLower(description)

	switch {
	case len(lowered) > 300:
		score += 30
	case len(lowered) > 200:
		score += 20
	case len(lowered) > 120:
		score += 10
	}

	if _, ok := popularDomains[strings.ToLower(strings.TrimSpace(domain))]; ok {
		score += 20
	}

	tokens := tokenize(description)
	tokenIndex := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		tokenIndex[token] = struct{}{}
	}
	normalized := strings.Join(tokens, " ")

	hits := 0
	for _, keyword := range keywords {
		if containsTerm(tokenIndex, normalized, keyword) {
			hits++
		}
	}
	score += min(hits*5, 30)

	for _, word := range datasetWords {
		if containsTerm(tokenIndex, normalized, word) {
			score += 4
		}
	}

	return min(score, 100)
}

// containsTerm matches single-word terms against whole tokens and
// multi-word terms as phrases over the normalized token stream.
func containsTerm(tokenIndex map[string]struct{}, normalized, term string) bool {
	if !strings.Contains(term, " ") {
		_, ok := tokenIndex[term]
		return ok
	}
	if normalized == term || strings.HasPrefix(normalized, term+" ") || strings.HasSuffix(normalized, " "+term) {
		return true
	}
	return strings.Contains(normalized, " "+term+" ")
}
