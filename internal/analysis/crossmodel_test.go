package analysis

import (
	"reflect"
	"testing"
)

func fullFingerprint() Fingerprint {
	return Fingerprint{
		Style: map[string]float64{
			"avg_word_count":    120,
			"uses_markdown":     0.8,
			"uses_bullet_lists": 0.4,
		},
		Vocabulary: &Vocabulary{
			UniqueRatio:     0.45,
			HedgingRatio:    0.2,
			ConfidenceRatio: 0.3,
		},
		Structure: map[string]float64{
			"avg_paragraph_count":        3.5,
			"starts_with_greeting_ratio": 0.1,
		},
	}
}

func TestFingerprintSimilarityIdentical(t *testing.T) {
	fp := fullFingerprint()
	if got := FingerprintSimilarity(fp, fp); got != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", got)
	}
}

func TestFingerprintSimilarityErrorFingerprint(t *testing.T) {
	bad := Fingerprint{Error: "No valid results to fingerprint"}
	if got := FingerprintSimilarity(bad, fullFingerprint()); got != 0.5 {
		t.Fatalf("similarity = %v, want neutral 0.5", got)
	}
	if got := FingerprintSimilarity(fullFingerprint(), bad); got != 0.5 {
		t.Fatalf("similarity = %v, want neutral 0.5", got)
	}
}

func TestFingerprintSimilarityNoSharedMetrics(t *testing.T) {
	a := Fingerprint{Style: map[string]float64{"avg_word_count": 100}}
	b := Fingerprint{Structure: map[string]float64{"avg_paragraph_count": 2}}
	if got := FingerprintSimilarity(a, b); got != 0 {
		t.Fatalf("similarity = %v, want 0 with no overlapping metrics", got)
	}
}

func TestFingerprintSimilaritySkipsMissingMetrics(t *testing.T) {
	a := Fingerprint{Style: map[string]float64{"avg_word_count": 100, "uses_markdown": 1.0}}
	b := Fingerprint{Style: map[string]float64{"avg_word_count": 50}}
	// Only avg_word_count is shared: 1 - 50/100 = 0.5.
	if got := FingerprintSimilarity(a, b); got != 0.5 {
		t.Fatalf("similarity = %v", got)
	}
}

func TestCompareModelsPairsAndVerdicts(t *testing.T) {
	same := fullFingerprint()
	different := Fingerprint{
		Style: map[string]float64{
			"avg_word_count":    10,
			"uses_markdown":     0.01,
			"uses_bullet_lists": 0.01,
		},
		Vocabulary: &Vocabulary{
			UniqueRatio:     0.01,
			HedgingRatio:    0.9,
			ConfidenceRatio: 0.01,
		},
		Structure: map[string]float64{
			"avg_paragraph_count":        1,
			"starts_with_greeting_ratio": 0.9,
		},
	}
	reports := []ModelReport{
		{ModelName: "model-a", IdentityClaims: []string{"claude 3.5", "gpt-4"}, Fingerprint: same},
		{ModelName: "model-b", IdentityClaims: []string{"claude 3.5"}, Fingerprint: same},
		{ModelName: "model-c", IdentityClaims: []string{"mistral-large"}, Fingerprint: different},
	}

	comparisons := CompareModels(reports)
	if len(comparisons) != 3 {
		t.Fatalf("comparisons = %d, want 3", len(comparisons))
	}

	ab := comparisons[0]
	if ab.ModelA != "model-a" || ab.ModelB != "model-b" {
		t.Fatalf("first pair = %s / %s", ab.ModelA, ab.ModelB)
	}
	if ab.Verdict != PairSameModel {
		t.Fatalf("a/b verdict = %s (score %v)", ab.Verdict, ab.SimilarityScore)
	}
	if !reflect.DeepEqual(ab.SharedPhrases, []string{"claude 3.5"}) {
		t.Fatalf("shared phrases = %v", ab.SharedPhrases)
	}

	ac := comparisons[1]
	if ac.Verdict != PairDifferentModels {
		t.Fatalf("a/c verdict = %s (score %v)", ac.Verdict, ac.SimilarityScore)
	}
	if len(ac.SharedPhrases) != 0 {
		t.Fatalf("a/c shared phrases = %v", ac.SharedPhrases)
	}
}

func TestCompareModelsSingleReportNoPairs(t *testing.T) {
	comparisons := CompareModels([]ModelReport{{ModelName: "only"}})
	if len(comparisons) != 0 {
		t.Fatalf("comparisons = %d, want 0", len(comparisons))
	}
}
