package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Red-flag detection is a rule table: each rule inspects one report or one
// comparison and yields zero or more flags. Adding a fraud signal means
// adding a rule, not touching the engine.

type reportRule func(ModelReport) []RedFlag

type comparisonRule func(CrossModelComparison) []RedFlag

var reportRules = []reportRule{
	identityMismatchRule,
	highLatencyRule,
	cutoffConsistencyRule,
}

var comparisonRules = []comparisonRule{
	sameModelRule,
}

var severityRank = map[Severity]int{
	SeverityHigh:   0,
	SeverityMedium: 1,
	SeverityLow:    2,
}

// DetectRedFlags runs every rule over the reports and comparisons and
// returns the flags ordered by severity. Rule order is preserved within a
// severity so output stays deterministic.
func DetectRedFlags(reports []ModelReport, comparisons []CrossModelComparison) []RedFlag {
	flags := []RedFlag{}
	for _, report := range reports {
		for _, rule := range reportRules {
			flags = append(flags, rule(report)...)
		}
	}
	for _, comp := range comparisons {
		for _, rule := range comparisonRules {
			flags = append(flags, rule(comp)...)
		}
	}
	sort.SliceStable(flags, func(i, j int) bool {
		return flagRank(flags[i]) < flagRank(flags[j])
	})
	return flags
}

func flagRank(f RedFlag) int {
	if rank, ok := severityRank[f.Severity]; ok {
		return rank
	}
	return len(severityRank) + 1
}

// DetermineVerdict reduces the detected flags to the overall fraud verdict.
// Two HIGH flags, or one HIGH plus a MEDIUM, condemn the endpoint; a clean
// sheet clears it; anything in between stays inconclusive.
func DetermineVerdict(flags []RedFlag) OverallVerdict {
	high, medium := 0, 0
	for _, f := range flags {
		switch f.Severity {
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		}
	}
	switch {
	case high >= 2:
		return VerdictFraudDetected
	case high == 1 && medium >= 1:
		return VerdictFraudDetected
	case high == 0 && medium == 0:
		return VerdictLegitimate
	default:
		return VerdictInconclusive
	}
}

// identityMismatchRule flags a model whose self-reported names do not share a
// single token with the requested name.
func identityMismatchRule(report ModelReport) []RedFlag {
	requested := strings.ToLower(report.ModelName)
	mismatches := []string{}
	for _, claim := range report.IdentityClaims {
		claim = strings.ToLower(claim)
		if !NamesMatch(requested, claim) {
			mismatches = append(mismatches, claim)
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	if len(mismatches) > 5 {
		mismatches = mismatches[:5]
	}
	return []RedFlag{{
		Severity:    SeverityHigh,
		Category:    "identity",
		Description: fmt.Sprintf("Model self-identifies differently than requested name '%s'", report.ModelName),
		Evidence:    fmt.Sprintf("Claims: %s", strings.Join(mismatches, ", ")),
	}}
}

// highLatencyRule flags average latency beyond 10 seconds, a common sign of
// an extra proxy hop in front of the real provider.
func highLatencyRule(report ModelReport) []RedFlag {
	if report.AvgLatencyMS <= 10_000 {
		return nil
	}
	return []RedFlag{{
		Severity:    SeverityMedium,
		Category:    "latency",
		Description: fmt.Sprintf("Very high average latency (%.0fms) suggests proxy/relay", report.AvgLatencyMS),
		Evidence:    fmt.Sprintf("Average across %d probes", report.TotalProbes),
	}}
}

// cutoffConsistencyRule flags a model that reports more than one training
// cutoff date across its responses.
func cutoffConsistencyRule(report ModelReport) []RedFlag {
	unique := map[string]bool{}
	for _, cutoff := range report.KnowledgeCutoffs {
		unique[cutoff] = true
	}
	if len(unique) <= 1 {
		return nil
	}
	cutoffs := make([]string, 0, len(unique))
	for cutoff := range unique {
		cutoffs = append(cutoffs, cutoff)
	}
	sort.Strings(cutoffs)
	return []RedFlag{{
		Severity:    SeverityHigh,
		Category:    "consistency",
		Description: "Inconsistent knowledge cutoff dates across responses",
		Evidence:    fmt.Sprintf("Claimed cutoffs: %s", strings.Join(cutoffs, ", ")),
	}}
}

// sameModelRule flags a pair of supposedly different models whose
// fingerprints say they are one and the same.
func sameModelRule(comp CrossModelComparison) []RedFlag {
	if comp.Verdict != PairSameModel {
		return nil
	}
	return []RedFlag{{
		Severity:    SeverityHigh,
		Category:    "similarity",
		Description: fmt.Sprintf("Models '%s' and '%s' appear to be the SAME underlying model", comp.ModelA, comp.ModelB),
		Evidence:    fmt.Sprintf("Similarity: %.1f%%, shared phrases: %d", comp.SimilarityScore*100, len(comp.SharedPhrases)),
	}}
}
