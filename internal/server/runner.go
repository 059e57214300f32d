package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mintesnot-teshome/llm-verify/internal/adapter"
	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

// ClientFactory builds a provider client for one model config. Tests swap
// this out for a fake.
type ClientFactory func(probe.ModelConfig, adapter.Defaults) (adapter.Client, error)

// BenchmarkRequest configures one benchmark run.
type BenchmarkRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	PromptSuite  string              `json:"prompt_suite"`
	ModelConfigs []probe.ModelConfig `json:"model_configs"`
	CreatedBy    string              `json:"-"`
}

// BenchmarkRunner executes prompt suites against model endpoints and stores
// the resulting records. Prompt calls fan out with bounded concurrency;
// failed calls become error records rather than failing the run.
type BenchmarkRunner struct {
	store         Store
	defaults      adapter.Defaults
	maxConcurrent int
	obs           *Observability
	logger        *slog.Logger
	newClient     ClientFactory
}

func NewBenchmarkRunner(store Store, cfg ServerConfig, obs *Observability, logger *slog.Logger) *BenchmarkRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BenchmarkRunner{
		store: store,
		defaults: adapter.Defaults{
			OpenAIAPIKey:    cfg.Providers.OpenAIAPIKey,
			AnthropicAPIKey: cfg.Providers.AnthropicAPIKey,
			SuspectAPIKey:   cfg.Providers.SuspectAPIKey,
			SuspectBaseURL:  cfg.Providers.SuspectAPIBaseURL,
			Timeout:         time.Duration(cfg.Benchmark.TimeoutSec) * time.Second,
		},
		maxConcurrent: cfg.Benchmark.MaxConcurrent,
		obs:           obs,
		logger:        logger,
		newClient:     adapter.New,
	}
}

// RunBenchmark executes one benchmark run end to end and returns the final
// run metadata plus the number of records stored.
func (b *BenchmarkRunner) RunBenchmark(ctx context.Context, req BenchmarkRequest) (RunMeta, int, error) {
	meta := RunMeta{
		RunID:        uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		PromptSuite:  req.PromptSuite,
		Status:       StatusRunning,
		ModelConfigs: req.ModelConfigs,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    nowRFC3339(),
	}
	if err := b.store.CreateRun(meta); err != nil {
		return RunMeta{}, 0, fmt.Errorf("create run: %w", err)
	}

	prompts := probe.Suite(req.PromptSuite)
	if prompts == nil {
		meta, _ = b.markFinished(meta.RunID, StatusFailed, fmt.Sprintf("unknown prompt suite: %s", req.PromptSuite))
		b.obs.MarkRun(ctx, string(StatusFailed))
		return meta, 0, fmt.Errorf("unknown prompt suite: %s", req.PromptSuite)
	}

	records := b.executeAll(ctx, meta.RunID, req.ModelConfigs, prompts)
	if err := b.store.InsertRecords(records); err != nil {
		meta, _ = b.markFinished(meta.RunID, StatusFailed, err.Error())
		b.obs.MarkRun(ctx, string(StatusFailed))
		return meta, 0, fmt.Errorf("store records: %w", err)
	}

	meta, err := b.markFinished(meta.RunID, StatusCompleted, "")
	if err != nil {
		return meta, len(records), err
	}
	b.obs.MarkRun(ctx, string(StatusCompleted))
	b.logger.Info("benchmark run finished",
		"run_id", meta.RunID, "suite", req.PromptSuite, "records", len(records))
	return meta, len(records), nil
}

// RunSuite runs a single suite for a single model. This is the entry point
// the deep-analysis orchestrator uses.
func (b *BenchmarkRunner) RunSuite(ctx context.Context, config probe.ModelConfig, suite string) (string, []probe.Record, error) {
	meta, _, err := b.RunBenchmark(ctx, BenchmarkRequest{
		Name:         fmt.Sprintf("%s — %s", config.ModelName, suite),
		Description:  fmt.Sprintf("Deep analysis: %s suite", suite),
		PromptSuite:  suite,
		ModelConfigs: []probe.ModelConfig{config},
	})
	if err != nil {
		return "", nil, err
	}
	return meta.RunID, b.store.ListRecords(meta.RunID), nil
}

// executeAll fans every model x prompt pair out to a bounded worker group.
// Every pair yields exactly one record.
func (b *BenchmarkRunner) executeAll(ctx context.Context, runID string, configs []probe.ModelConfig, prompts []probe.Prompt) []probe.Record {
	var mu sync.Mutex
	records := make([]probe.Record, 0, len(configs)*len(prompts))

	group, groupCtx := errgroup.WithContext(ctx)
	limit := b.maxConcurrent
	if limit <= 0 {
		limit = 5
	}
	group.SetLimit(limit)

	for _, config := range configs {
		client, err := b.newClient(config, b.defaults)
		if err != nil {
			b.logger.Warn("adapter setup failed", "model", config.ModelName, "error", err)
			mu.Lock()
			for _, prompt := range prompts {
				records = append(records, b.buildRecord(runID, config, prompt, adapter.Completion{Err: err.Error()}))
			}
			mu.Unlock()
			continue
		}
		for _, prompt := range prompts {
			group.Go(func() error {
				completion := client.Complete(groupCtx, prompt.Text, "")
				b.obs.MarkProviderCall(groupCtx, config.Provider, int64(completion.LatencyMS))
				b.obs.MarkRecord(groupCtx, config.Provider, completion.IsError())
				if completion.IsError() {
					b.logger.Warn("probe call failed",
						"model", config.ModelName, "category", string(prompt.Category), "error", completion.Err)
				}
				record := b.buildRecord(runID, config, prompt, completion)
				mu.Lock()
				records = append(records, record)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = group.Wait()
	return records
}

func (b *BenchmarkRunner) buildRecord(runID string, config probe.ModelConfig, prompt probe.Prompt, completion adapter.Completion) probe.Record {
	record := probe.Record{
		ID:               uuid.NewString(),
		RunID:            runID,
		ModelName:        config.ModelName,
		Provider:         config.Provider,
		APIBaseURL:       config.APIBaseURL,
		PromptCategory:   prompt.Category,
		PromptText:       prompt.Text,
		ResponseText:     completion.Text,
		ErrorMessage:     completion.Err,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		TotalTokens:      completion.TotalTokens,
		CreatedAt:        nowRFC3339(),
	}
	if completion.LatencyMS > 0 {
		latency := completion.LatencyMS
		record.LatencyMS = &latency
	}
	return record
}

func (b *BenchmarkRunner) markFinished(runID string, status RunStatus, errMsg string) (RunMeta, error) {
	return b.store.UpdateRun(runID, func(m *RunMeta) {
		m.Status = status
		m.Error = errMsg
		if status == StatusCompleted || status == StatusFailed {
			m.CompletedAt = nowRFC3339()
		}
	})
}
