package analysis

import (
	"math"
	"sort"
)

// The behavioral metrics compared across fingerprints. Each is a ratio or an
// average with a stable scale, so the relative-distance score stays
// meaningful across models of different verbosity.
var crossModelMetrics = []struct {
	section string
	key     string
}{
	{"style", "avg_word_count"},
	{"style", "uses_markdown"},
	{"style", "uses_bullet_lists"},
	{"vocabulary", "unique_ratio"},
	{"vocabulary", "hedging_ratio"},
	{"vocabulary", "confidence_ratio"},
	{"structure", "avg_paragraph_count"},
	{"structure", "starts_with_greeting_ratio"},
}

// CompareModels scores every pair of model reports for behavioral similarity.
// Pair order follows the report order, so output is deterministic.
func CompareModels(reports []ModelReport) []CrossModelComparison {
	comparisons := []CrossModelComparison{}
	for i := 0; i < len(reports); i++ {
		for j := i + 1; j < len(reports); j++ {
			a, b := reports[i], reports[j]
			score := FingerprintSimilarity(a.Fingerprint, b.Fingerprint)
			shared := sharedClaims(a, b)
			if len(shared) > 10 {
				shared = shared[:10]
			}
			comparisons = append(comparisons, CrossModelComparison{
				ModelA:          a.ModelName,
				ModelB:          b.ModelName,
				SimilarityScore: round4(score),
				SharedPhrases:   shared,
				Verdict:         pairVerdict(score),
			})
		}
	}
	return comparisons
}

// FingerprintSimilarity averages per-metric similarity over the metrics both
// fingerprints carry. An error fingerprint on either side is neutral 0.5;
// two fingerprints sharing no metrics at all score 0.
func FingerprintSimilarity(a, b Fingerprint) float64 {
	if a.Error != "" || b.Error != "" {
		return 0.5
	}
	sum := 0.0
	count := 0
	for _, m := range crossModelMetrics {
		valA, okA := fingerprintMetric(a, m.section, m.key)
		valB, okB := fingerprintMetric(b, m.section, m.key)
		if !okA || !okB {
			continue
		}
		maxVal := maxFloat(math.Abs(valA), math.Abs(valB), 0.001)
		sum += 1.0 - math.Abs(valA-valB)/maxVal
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func fingerprintMetric(fp Fingerprint, section, key string) (float64, bool) {
	switch section {
	case "style":
		v, ok := fp.Style[key]
		return v, ok
	case "structure":
		v, ok := fp.Structure[key]
		return v, ok
	case "vocabulary":
		if fp.Vocabulary == nil {
			return 0, false
		}
		switch key {
		case "unique_ratio":
			return fp.Vocabulary.UniqueRatio, true
		case "hedging_ratio":
			return fp.Vocabulary.HedgingRatio, true
		case "confidence_ratio":
			return fp.Vocabulary.ConfidenceRatio, true
		}
	}
	return 0, false
}

func sharedClaims(a, b ModelReport) []string {
	claimsB := map[string]bool{}
	for _, claim := range b.IdentityClaims {
		claimsB[claim] = true
	}
	shared := []string{}
	for _, claim := range a.IdentityClaims {
		if claimsB[claim] {
			shared = append(shared, claim)
		}
	}
	sort.Strings(shared)
	return shared
}

func pairVerdict(score float64) PairVerdict {
	switch {
	case score >= 0.85:
		return PairSameModel
	case score <= 0.50:
		return PairDifferentModels
	default:
		return PairInconclusive
	}
}
