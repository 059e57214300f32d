package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

// Relative weight of each dimension in the overall similarity. Error rate
// and response length dominate because they are the hardest to spoof.
var dimensionWeights = map[string]float64{
	"latency":         0.15,
	"response_length": 0.30,
	"token_usage":     0.25,
	"error_rate":      0.30,
}

// CompareRuns scores how similar two benchmark runs look across the
// operational dimensions. A dimension with no comparable data on either side
// scores the neutral 0.5 rather than dragging the verdict either way.
func CompareRuns(baselineRunID, suspectRunID string, baseline, suspect []probe.Record) ComparisonScore {
	if len(baseline) == 0 || len(suspect) == 0 {
		return ComparisonScore{
			OverallSimilarity: 0.5,
			Dimensions:        map[string]float64{},
			Verdict:           CompareInconclusive,
			Details:           "One or both runs have no results.",
		}
	}

	dimensions := map[string]float64{
		"latency":         compareMeans(latencies(baseline), latencies(suspect)),
		"response_length": compareMeans(responseLengths(baseline), responseLengths(suspect)),
		"token_usage":     compareMeans(tokenCounts(baseline), tokenCounts(suspect)),
		"error_rate":      1.0 - math.Abs(errorRate(baseline)-errorRate(suspect)),
	}
	overall := weightedOverall(dimensions)
	verdict := similarityVerdict(overall)

	return ComparisonScore{
		BaselineRunID:     baselineRunID,
		SuspectRunID:      suspectRunID,
		OverallSimilarity: round4(overall),
		Dimensions:        dimensions,
		Verdict:           verdict,
		Details:           buildDetails(dimensions, verdict),
	}
}

// compareMeans scores two samples by the relative distance of their means.
// Identical means score 1.0; an empty sample on either side scores 0.5.
func compareMeans(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.5
	}
	meanA := rawMean(a)
	meanB := rawMean(b)
	return 1.0 - math.Abs(meanA-meanB)/maxFloat(meanA, meanB, 1.0)
}

func weightedOverall(dimensions map[string]float64) float64 {
	totalWeight := 0.0
	weightedSum := 0.0
	for key, score := range dimensions {
		weight := dimensionWeights[key]
		totalWeight += weight
		weightedSum += score * weight
	}
	if totalWeight == 0 {
		return 0.5
	}
	return weightedSum / totalWeight
}

func similarityVerdict(overall float64) CompareVerdict {
	switch {
	case overall >= 0.80:
		return CompareMatch
	case overall <= 0.50:
		return CompareMismatch
	default:
		return CompareInconclusive
	}
}

func buildDetails(dimensions map[string]float64, verdict CompareVerdict) string {
	keys := make([]string, 0, len(dimensions))
	for key := range dimensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := []string{fmt.Sprintf("Verdict: %s", verdict), "Dimension scores:"}
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %.2f%%", key, dimensions[key]*100))
	}
	return strings.Join(lines, "\n")
}

func latencies(records []probe.Record) []float64 {
	out := []float64{}
	for _, r := range records {
		if r.LatencyMS != nil {
			out = append(out, *r.LatencyMS)
		}
	}
	return out
}

func responseLengths(records []probe.Record) []float64 {
	out := []float64{}
	for _, r := range records {
		if r.ResponseText != "" {
			out = append(out, float64(utf8.RuneCountInString(r.ResponseText)))
		}
	}
	return out
}

func tokenCounts(records []probe.Record) []float64 {
	out := []float64{}
	for _, r := range records {
		if r.TotalTokens != nil {
			out = append(out, float64(*r.TotalTokens))
		}
	}
	return out
}

func errorRate(records []probe.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	errors := 0
	for _, r := range records {
		if r.IsError() {
			errors++
		}
	}
	return float64(errors) / float64(len(records))
}

// rawMean is the unrounded mean; the rounded form in mean() would skew the
// relative-distance scores.
func rawMean(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
