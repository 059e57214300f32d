package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

type fakeRunner struct {
	records  map[string][]probe.Record
	failOn   map[string]bool
	runCalls []string
}

func (f *fakeRunner) RunSuite(_ context.Context, config probe.ModelConfig, suite string) (string, []probe.Record, error) {
	key := config.ModelName + "/" + suite
	f.runCalls = append(f.runCalls, key)
	if f.failOn[key] {
		return "", nil, errors.New("provider unreachable")
	}
	runID := "run-" + key
	records := make([]probe.Record, len(f.records[key]))
	copy(records, f.records[key])
	for i := range records {
		records[i].RunID = runID
	}
	return runID, records, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func honestRecords(model string) []probe.Record {
	identity := textRecord(fmt.Sprintf("I am %s. My knowledge cutoff is April 2024.", model))
	identity.PromptCategory = probe.CategoryIdentity
	identity.ModelName = model
	identity.LatencyMS = floatPtr(400)
	answer := textRecord("Here is a detailed answer with plenty of words in it.")
	answer.ModelName = model
	answer.LatencyMS = floatPtr(600)
	return []probe.Record{identity, answer}
}

func TestAnalyzeHonestModel(t *testing.T) {
	runner := &fakeRunner{records: map[string][]probe.Record{
		"claude-3-opus/identity":    honestRecords("claude-3-opus"),
		"claude-3-opus/capability":  honestRecords("claude-3-opus"),
		"claude-3-opus/fingerprint": honestRecords("claude-3-opus"),
	}}
	analyzer := NewAnalyzer(runner, quietLogger())

	report, err := analyzer.Analyze(context.Background(), Request{
		Name:         "spot check",
		ModelConfigs: []probe.ModelConfig{{ModelName: "claude-3-opus", Provider: "anthropic"}},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Verdict != VerdictLegitimate {
		t.Fatalf("verdict = %s, flags = %v", report.Verdict, report.RedFlags)
	}
	if len(report.ModelReports) != 1 {
		t.Fatalf("model reports = %d", len(report.ModelReports))
	}
	mr := report.ModelReports[0]
	if mr.TotalProbes != 6 || mr.Errors != 0 {
		t.Fatalf("probes = %d errors = %d", mr.TotalProbes, mr.Errors)
	}
	if mr.AvgLatencyMS != 500 {
		t.Fatalf("avg latency = %v", mr.AvgLatencyMS)
	}
	if len(mr.RunIDs) != 3 {
		t.Fatalf("run ids = %v", mr.RunIDs)
	}
	if len(mr.IdentityClaims) == 0 {
		t.Fatal("expected identity claims extracted")
	}
	if report.StartedAt == "" || report.CompletedAt == "" {
		t.Fatal("missing timestamps")
	}
}

func TestAnalyzeDefaultsToAllSuites(t *testing.T) {
	runner := &fakeRunner{}
	analyzer := NewAnalyzer(runner, quietLogger())

	_, err := analyzer.Analyze(context.Background(), Request{
		Name:         "defaults",
		ModelConfigs: []probe.ModelConfig{{ModelName: "m", Provider: "openai"}},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(runner.runCalls) != 3 {
		t.Fatalf("run calls = %v", runner.runCalls)
	}
}

func TestAnalyzeSkipsUnknownSuite(t *testing.T) {
	runner := &fakeRunner{}
	analyzer := NewAnalyzer(runner, quietLogger())

	_, err := analyzer.Analyze(context.Background(), Request{
		Name:         "unknown suite",
		ModelConfigs: []probe.ModelConfig{{ModelName: "m", Provider: "openai"}},
		Suites:       []string{"identity", "nonexistent"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(runner.runCalls) != 1 || runner.runCalls[0] != "m/identity" {
		t.Fatalf("run calls = %v", runner.runCalls)
	}
}

func TestAnalyzeToleratesSuiteFailure(t *testing.T) {
	runner := &fakeRunner{
		records: map[string][]probe.Record{
			"m/identity": honestRecords("m"),
		},
		failOn: map[string]bool{"m/capability": true},
	}
	analyzer := NewAnalyzer(runner, quietLogger())

	report, err := analyzer.Analyze(context.Background(), Request{
		Name:         "partial",
		ModelConfigs: []probe.ModelConfig{{ModelName: "m", Provider: "openai"}},
		Suites:       []string{"identity", "capability"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	mr := report.ModelReports[0]
	if len(mr.RunIDs) != 1 {
		t.Fatalf("run ids = %v, want failed suite absent", mr.RunIDs)
	}
	if mr.TotalProbes != 2 {
		t.Fatalf("probes = %d", mr.TotalProbes)
	}
}

func TestAnalyzeRejectsEmptyConfig(t *testing.T) {
	analyzer := NewAnalyzer(&fakeRunner{}, quietLogger())
	if _, err := analyzer.Analyze(context.Background(), Request{Name: "empty"}); err == nil {
		t.Fatal("expected error for empty model configs")
	}
}

func TestAnalyzeDetectsImpersonation(t *testing.T) {
	liar := textRecord("I am actually GPT-4, trained by OpenAI. My knowledge cutoff is April 2023.")
	liar.PromptCategory = probe.CategoryIdentity
	liar.LatencyMS = floatPtr(15000)
	other := textRecord("Training data goes through January 2022.")
	other.PromptCategory = probe.CategoryIdentity
	other.LatencyMS = floatPtr(16000)

	runner := &fakeRunner{records: map[string][]probe.Record{
		"claude-3-opus/identity": {liar, other},
	}}
	analyzer := NewAnalyzer(runner, quietLogger())

	report, err := analyzer.Analyze(context.Background(), Request{
		Name:         "impersonation",
		ModelConfigs: []probe.ModelConfig{{ModelName: "claude-3-opus", Provider: "suspect"}},
		Suites:       []string{"identity"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Identity mismatch (HIGH), inconsistent cutoffs (HIGH), slow (MEDIUM).
	if report.Verdict != VerdictFraudDetected {
		t.Fatalf("verdict = %s, flags = %v", report.Verdict, report.RedFlags)
	}
	if len(report.RedFlags) != 3 {
		t.Fatalf("flags = %v", report.RedFlags)
	}
	if report.RedFlags[0].Severity != SeverityHigh {
		t.Fatalf("flag order = %v", report.RedFlags)
	}
	if !strings.Contains(report.Summary, "FRAUD_DETECTED") {
		t.Fatalf("summary = %q", report.Summary)
	}
}

func TestAnalyzeSummaryFormat(t *testing.T) {
	runner := &fakeRunner{records: map[string][]probe.Record{
		"m/identity": honestRecords("m"),
	}}
	analyzer := NewAnalyzer(runner, quietLogger())

	report, err := analyzer.Analyze(context.Background(), Request{
		Name:         "summary",
		ModelConfigs: []probe.ModelConfig{{ModelName: "m", Provider: "openai"}},
		Suites:       []string{"identity"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	lines := strings.Split(report.Summary, "\n")
	if lines[0] != "Deep Analysis — Verdict: "+string(report.Verdict) {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[2] != "Models analyzed: 1" {
		t.Fatalf("line 3 = %q", lines[2])
	}
	if !strings.HasPrefix(lines[5], "• m (openai)") {
		t.Fatalf("model line = %q", lines[5])
	}
}
