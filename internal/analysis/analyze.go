package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

// Runner executes one prompt suite against one model endpoint and returns
// the stored run ID plus the captured records.
type Runner interface {
	RunSuite(ctx context.Context, config probe.ModelConfig, suite string) (string, []probe.Record, error)
}

// Analyzer orchestrates a full deep analysis: probe every model across the
// requested suites, fingerprint each, cross-compare the pairs, and reduce
// the evidence to a fraud verdict.
type Analyzer struct {
	runner Runner
	logger *slog.Logger
}

func NewAnalyzer(runner Runner, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{runner: runner, logger: logger}
}

// Analyze runs the complete pipeline. Suite failures for one model do not
// abort the analysis; the affected model's report is built from whatever
// evidence was collected. Models run sequentially so their latency numbers
// are not skewed by each other's load.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (DeepAnalysisReport, error) {
	if len(req.ModelConfigs) == 0 {
		return DeepAnalysisReport{}, fmt.Errorf("analysis %q: no model configs", req.Name)
	}
	suites := req.Suites
	if len(suites) == 0 {
		suites = probe.SuiteNames()
	}

	startedAt := time.Now().UTC()
	reports := make([]ModelReport, 0, len(req.ModelConfigs))
	for _, config := range req.ModelConfigs {
		if err := ctx.Err(); err != nil {
			return DeepAnalysisReport{}, err
		}
		reports = append(reports, a.analyzeModel(ctx, config, suites))
	}

	comparisons := CompareModels(reports)
	flags := DetectRedFlags(reports, comparisons)
	verdict := DetermineVerdict(flags)

	return DeepAnalysisReport{
		Name:                  req.Name,
		StartedAt:             startedAt.Format(time.RFC3339),
		CompletedAt:           time.Now().UTC().Format(time.RFC3339),
		ModelReports:          reports,
		CrossModelComparisons: comparisons,
		RedFlags:              flags,
		Verdict:               verdict,
		Summary:               buildSummary(reports, flags, verdict),
	}, nil
}

func (a *Analyzer) analyzeModel(ctx context.Context, config probe.ModelConfig, suites []string) ModelReport {
	runIDs := map[string]string{}
	records := []probe.Record{}
	for _, suite := range suites {
		if probe.Suite(suite) == nil {
			a.logger.Warn("skipping unknown suite", "suite", suite, "model", config.ModelName)
			continue
		}
		runID, suiteRecords, err := a.runner.RunSuite(ctx, config, suite)
		if err != nil {
			a.logger.Error("suite run failed",
				"model", config.ModelName, "suite", suite, "error", err)
			continue
		}
		runIDs[suite] = runID
		records = append(records, suiteRecords...)
	}

	latencySum, latencyCount := 0.0, 0
	errors := 0
	for _, r := range records {
		if r.LatencyMS != nil {
			latencySum += *r.LatencyMS
			latencyCount++
		}
		if r.IsError() {
			errors++
		}
	}
	avgLatency := 0.0
	if latencyCount > 0 {
		avgLatency = round2(latencySum / float64(latencyCount))
	}

	return ModelReport{
		ModelName:        config.ModelName,
		Provider:         config.Provider,
		RunIDs:           runIDs,
		IdentityClaims:   ExtractIdentityClaims(records),
		KnowledgeCutoffs: ExtractKnowledgeCutoffs(records),
		AvgLatencyMS:     avgLatency,
		TotalProbes:      len(records),
		Errors:           errors,
		TimeoutRate:      round4(float64(errors) / float64(maxInt(len(records), 1))),
		Fingerprint:      GenerateFingerprint(records),
	}
}

func buildSummary(reports []ModelReport, flags []RedFlag, verdict OverallVerdict) string {
	lines := []string{
		fmt.Sprintf("Deep Analysis — Verdict: %s", verdict),
		"",
		fmt.Sprintf("Models analyzed: %d", len(reports)),
		fmt.Sprintf("Red flags detected: %d", len(flags)),
		"",
	}
	for _, report := range reports {
		lines = append(lines,
			fmt.Sprintf("• %s (%s)", report.ModelName, report.Provider),
			fmt.Sprintf("  Probes: %d, Errors: %d", report.TotalProbes, report.Errors),
			fmt.Sprintf("  Avg latency: %.0fms", report.AvgLatencyMS),
		)
		if len(report.IdentityClaims) > 0 {
			claims := report.IdentityClaims
			if len(claims) > 3 {
				claims = claims[:3]
			}
			lines = append(lines, fmt.Sprintf("  Identity claims: %s", strings.Join(claims, ", ")))
		}
		if len(report.KnowledgeCutoffs) > 0 {
			lines = append(lines, fmt.Sprintf("  Knowledge cutoffs: %s", strings.Join(uniqueSorted(report.KnowledgeCutoffs), ", ")))
		}
	}
	if len(flags) > 0 {
		lines = append(lines, "", "Red Flags:")
		for _, flag := range flags {
			lines = append(lines, fmt.Sprintf("  [%s] %s: %s", flag.Severity, flag.Category, flag.Description))
		}
	}
	return strings.Join(lines, "\n")
}

func uniqueSorted(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
