package scoring

import (
	"strings"
	"testing"
)

func TestFeasibilityBlockchainScenario(t *testing.T) {
	// Length 350, one keyword hit (blockchain), one dataset hint, and a
	// domain outside the popular set.
	base := "A supply tracking platform built on blockchain with a public dataset of shipments."
	description := base + strings.Repeat(" Every shipment record is anchored and verified on chain.", 5)
	if len(description) <= 300 {
		t.Fatalf("fixture too short: %d", len(description))
	}
	got := Feasibility(description, "blockchain")
	if got != 39 {
		t.Fatalf("Feasibility() = %d, want 39", got)
	}
}

func TestFeasibilityShortKeywordsNeedWholeTokens(t *testing.T) {
	// "ai" must not fire inside "blockchain", "ml" not inside "html".
	if got := Feasibility("blockchain html page", "other"); got != 5 {
		t.Fatalf("Feasibility() = %d, want 5 for single blockchain hit", got)
	}
	if got := Feasibility("an ai tutor", "other"); got != 5 {
		t.Fatalf("Feasibility() = %d, want 5 for ai token", got)
	}
}

func TestFeasibilityPopularDomainBonus(t *testing.T) {
	if got := Feasibility("short", "Machine Learning"); got != 20 {
		t.Fatalf("Feasibility() = %d, want 20", got)
	}
	if got := Feasibility("short", "machine learning "); got != 20 {
		t.Fatalf("Feasibility() = %d, want 20 for padded domain", got)
	}
}

func TestFeasibilityKeywordCap(t *testing.T) {
	// Seven distinct keywords, contribution capped at 30.
	description := "ai ml nlp iot api automation blockchain"
	if got := Feasibility(description, "other"); got != 30 {
		t.Fatalf("Feasibility() = %d, want 30", got)
	}
}

func TestFeasibilityBounds(t *testing.T) {
	if got := Feasibility("", ""); got != 0 {
		t.Fatalf("Feasibility(empty) = %d, want 0", got)
	}
	dense := strings.Repeat("ai ml nlp iot api automation blockchain dataset kaggle github open data public api research paper deep learning neural network ", 5)
	if got := Feasibility(dense, "data science"); got != 100 {
		t.Fatalf("Feasibility(dense) = %d, want clamp at 100", got)
	}
}

func TestSimilaritySymmetricAndSelf(t *testing.T) {
	a := "Machine learning for crop yield prediction using open data"
	b := "Machine learning crop yield prediction open data"
	ab := Similarity(a, b)
	ba := Similarity(b, a)
	if ab != ba {
		t.Fatalf("Similarity not symmetric: %d vs %d", ab, ba)
	}
	if ab < PlagiarismThreshold {
		t.Fatalf("Similarity() = %d, want >= %d", ab, PlagiarismThreshold)
	}
	if !IsPlagiarismSuspect(ab) {
		t.Fatal("expected plagiarism flag")
	}
	if got := Similarity(a, a); got != 100 {
		t.Fatalf("Similarity(a, a) = %d, want 100", got)
	}
}

func TestSimilarityEmptyAndShortTokens(t *testing.T) {
	if got := Similarity("", "anything meaningful here"); got != 0 {
		t.Fatalf("Similarity(empty) = %d, want 0", got)
	}
	// Tokens of length <= 3 are discarded entirely.
	if got := Similarity("a an the", "a an the"); got != 0 {
		t.Fatalf("Similarity(stopwords) = %d, want 0", got)
	}
	if got := Similarity("completely different things", "unrelated other matter"); got != 0 {
		t.Fatalf("Similarity(disjoint) = %d, want 0", got)
	}
}

func TestSimilarityIgnoresPunctuationAndCase(t *testing.T) {
	if got := Similarity("Smart, irrigation; system!", "smart irrigation system"); got != 100 {
		t.Fatalf("Similarity() = %d, want 100", got)
	}
}
