package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mintesnot-teshome/llm-verify/internal/adapter"
	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

type fakeClient struct {
	completion adapter.Completion
}

func (c *fakeClient) Complete(ctx context.Context, prompt, systemPrompt string) adapter.Completion {
	return c.completion
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestRunner(t *testing.T, factory ClientFactory) (*BenchmarkRunner, *MemoryFileStore) {
	t.Helper()
	store, err := NewMemoryFileStore("")
	if err != nil {
		t.Fatalf("NewMemoryFileStore: %v", err)
	}
	runner := NewBenchmarkRunner(store, DefaultServerConfig(), nil, quietLogger())
	runner.newClient = factory
	return runner, store
}

func TestRunBenchmarkRecordPerPrompt(t *testing.T) {
	latency := 123.0
	runner, store := newTestRunner(t, func(probe.ModelConfig, adapter.Defaults) (adapter.Client, error) {
		return &fakeClient{completion: adapter.Completion{Text: "I am a model.", LatencyMS: latency}}, nil
	})

	req := BenchmarkRequest{
		Name:        "identity check",
		PromptSuite: "identity",
		ModelConfigs: []probe.ModelConfig{
			{ModelName: "model-a", Provider: "anthropic"},
			{ModelName: "model-b", Provider: "openai"},
		},
	}
	meta, count, err := runner.RunBenchmark(context.Background(), req)
	if err != nil {
		t.Fatalf("RunBenchmark: %v", err)
	}
	if meta.Status != StatusCompleted {
		t.Fatalf("status = %s", meta.Status)
	}
	if meta.CompletedAt == "" {
		t.Fatal("completed run missing completed_at")
	}

	want := 2 * len(probe.IdentityPrompts)
	if count != want {
		t.Fatalf("record count = %d, want %d", count, want)
	}
	records := store.ListRecords(meta.RunID)
	if len(records) != want {
		t.Fatalf("stored records = %d, want %d", len(records), want)
	}
	for _, record := range records {
		if record.IsError() {
			t.Fatalf("unexpected error record: %q", record.ErrorMessage)
		}
		if record.LatencyMS == nil || *record.LatencyMS != latency {
			t.Fatalf("latency = %v", record.LatencyMS)
		}
	}
	byModel := store.ListRecordsByModel(meta.RunID, "model-a")
	if len(byModel) != len(probe.IdentityPrompts) {
		t.Fatalf("model-a records = %d", len(byModel))
	}
}

func TestRunBenchmarkUnknownSuite(t *testing.T) {
	runner, _ := newTestRunner(t, func(probe.ModelConfig, adapter.Defaults) (adapter.Client, error) {
		return &fakeClient{}, nil
	})

	meta, count, err := runner.RunBenchmark(context.Background(), BenchmarkRequest{
		Name:         "bad suite",
		PromptSuite:  "nonsense",
		ModelConfigs: []probe.ModelConfig{{ModelName: "m", Provider: "openai"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown suite")
	}
	if meta.Status != StatusFailed {
		t.Fatalf("status = %s", meta.Status)
	}
	if count != 0 {
		t.Fatalf("count = %d", count)
	}
}

func TestRunBenchmarkFactoryFailureYieldsErrorRecords(t *testing.T) {
	runner, store := newTestRunner(t, func(probe.ModelConfig, adapter.Defaults) (adapter.Client, error) {
		return nil, errors.New("no API key configured")
	})

	meta, count, err := runner.RunBenchmark(context.Background(), BenchmarkRequest{
		Name:         "broken config",
		PromptSuite:  "capability",
		ModelConfigs: []probe.ModelConfig{{ModelName: "model-a", Provider: "generic"}},
	})
	if err != nil {
		t.Fatalf("RunBenchmark: %v", err)
	}
	if meta.Status != StatusCompleted {
		t.Fatalf("status = %s", meta.Status)
	}
	if count != len(probe.CapabilityPrompts) {
		t.Fatalf("count = %d", count)
	}
	for _, record := range store.ListRecords(meta.RunID) {
		if !record.IsError() || !strings.Contains(record.ErrorMessage, "no API key configured") {
			t.Fatalf("record error = %q", record.ErrorMessage)
		}
	}
}

func TestRunBenchmarkProbeErrorsBecomeRecords(t *testing.T) {
	runner, store := newTestRunner(t, func(probe.ModelConfig, adapter.Defaults) (adapter.Client, error) {
		return &fakeClient{completion: adapter.Completion{Err: "HTTP 429: rate limited"}}, nil
	})

	meta, _, err := runner.RunBenchmark(context.Background(), BenchmarkRequest{
		Name:         "rate limited",
		PromptSuite:  "identity",
		ModelConfigs: []probe.ModelConfig{{ModelName: "model-a", Provider: "suspect"}},
	})
	if err != nil {
		t.Fatalf("RunBenchmark: %v", err)
	}
	if meta.Status != StatusCompleted {
		t.Fatalf("status = %s", meta.Status)
	}
	records := store.ListRecords(meta.RunID)
	for _, record := range records {
		if record.ErrorMessage != "HTTP 429: rate limited" {
			t.Fatalf("error = %q", record.ErrorMessage)
		}
		if record.LatencyMS != nil {
			t.Fatalf("latency pointer set for zero latency")
		}
	}
}

func TestRunSuiteReturnsRecords(t *testing.T) {
	runner, _ := newTestRunner(t, func(probe.ModelConfig, adapter.Defaults) (adapter.Client, error) {
		return &fakeClient{completion: adapter.Completion{Text: "fine"}}, nil
	})

	runID, records, err := runner.RunSuite(context.Background(),
		probe.ModelConfig{ModelName: "model-a", Provider: "anthropic"}, "fingerprint")
	if err != nil {
		t.Fatalf("RunSuite: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run ID")
	}
	if len(records) != len(probe.FingerprintPrompts) {
		t.Fatalf("records = %d, want %d", len(records), len(probe.FingerprintPrompts))
	}
	for _, record := range records {
		if record.RunID != runID {
			t.Fatalf("record run ID = %s, want %s", record.RunID, runID)
		}
		if record.PromptCategory != probe.CategoryFingerprint {
			t.Fatalf("category = %s", record.PromptCategory)
		}
	}
}
