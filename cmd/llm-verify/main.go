package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mintesnot-teshome/llm-verify/internal/analysis"
	"github.com/mintesnot-teshome/llm-verify/internal/probe"
	"github.com/mintesnot-teshome/llm-verify/internal/server"
)

type targetsFile struct {
	Name   string              `yaml:"name"`
	Suites []string            `yaml:"suites"`
	Models []probe.ModelConfig `yaml:"models"`
}

func main() {
	targetsPath := flag.String("targets", "", "Path to YAML file listing model endpoints to verify")
	name := flag.String("name", "llm-verify run", "Analysis name")
	model := flag.String("model", envOr("VERIFY_MODEL", ""), "Single model name (alternative to -targets)")
	provider := flag.String("provider", envOr("VERIFY_PROVIDER", "suspect"), "Provider for -model: openai|anthropic|suspect|generic")
	baseURL := flag.String("base-url", envOr("VERIFY_BASE_URL", ""), "API base URL for -model")
	apiKey := flag.String("api-key", envOr("VERIFY_API_KEY", ""), "API key for -model")
	protocol := flag.String("protocol", "", "Wire protocol override for -model: openai|anthropic")
	suites := flag.String("suites", "all", "Comma-separated suites: identity,capability,fingerprint,all")
	openaiKey := flag.String("openai-key", envOr("OPENAI_API_KEY", ""), "Fallback OpenAI API key")
	anthropicKey := flag.String("anthropic-key", envOr("ANTHROPIC_API_KEY", ""), "Fallback Anthropic API key")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-request timeout")
	maxConcurrent := flag.Int("max-concurrent", 5, "Max concurrent provider calls")
	format := flag.String("format", "text", "Output format: text|json")
	outputPath := flag.String("out", "", "Write full report JSON to this file")
	strict := flag.Bool("strict", false, "Exit non-zero unless the verdict is LEGITIMATE")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	req, err := buildRequest(*targetsPath, *name, *model, *provider, *baseURL, *apiKey, *protocol, *suites)
	if err != nil {
		exitWith(err.Error())
	}

	store, err := server.NewMemoryFileStore("")
	if err != nil {
		exitWith("init store: " + err.Error())
	}
	cfg := server.DefaultServerConfig()
	cfg.Providers.OpenAIAPIKey = *openaiKey
	cfg.Providers.AnthropicAPIKey = *anthropicKey
	cfg.Benchmark.TimeoutSec = int(timeout.Seconds())
	cfg.Benchmark.MaxConcurrent = *maxConcurrent

	runner := server.NewBenchmarkRunner(store, cfg, nil, logger)
	analyzer := analysis.NewAnalyzer(runner, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout*64)
	defer cancel()

	report, err := analyzer.Analyze(ctx, req)
	if err != nil {
		exitWith("analysis failed: " + err.Error())
	}

	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "json":
		printJSON(report)
	default:
		fmt.Println(report.Summary)
	}

	if strings.TrimSpace(*outputPath) != "" {
		if err := writeReport(*outputPath, report); err != nil {
			exitWith("failed to write report: " + err.Error())
		}
	}

	if *strict && report.Verdict != analysis.VerdictLegitimate {
		os.Exit(1)
	}
}

func buildRequest(targetsPath, name, model, provider, baseURL, apiKey, protocol, suites string) (analysis.Request, error) {
	selected := probe.ResolveSuiteSelection(suites)
	for _, suite := range selected {
		if probe.Suite(suite) == nil {
			return analysis.Request{}, fmt.Errorf("unknown suite: %s", suite)
		}
	}

	if strings.TrimSpace(targetsPath) != "" {
		data, err := os.ReadFile(filepath.Clean(targetsPath))
		if err != nil {
			return analysis.Request{}, fmt.Errorf("read targets file: %v", err)
		}
		var targets targetsFile
		if err := yaml.Unmarshal(data, &targets); err != nil {
			return analysis.Request{}, fmt.Errorf("parse targets file: %v", err)
		}
		if len(targets.Models) == 0 {
			return analysis.Request{}, fmt.Errorf("targets file lists no models")
		}
		if strings.TrimSpace(targets.Name) != "" {
			name = targets.Name
		}
		if len(targets.Suites) > 0 {
			selected = targets.Suites
		}
		return analysis.Request{Name: name, ModelConfigs: targets.Models, Suites: selected}, nil
	}

	if strings.TrimSpace(model) == "" {
		return analysis.Request{}, fmt.Errorf("either -targets or -model is required")
	}
	return analysis.Request{
		Name: name,
		ModelConfigs: []probe.ModelConfig{{
			ModelName:  model,
			Provider:   provider,
			APIKey:     apiKey,
			APIBaseURL: baseURL,
			Protocol:   protocol,
		}},
		Suites: selected,
	}, nil
}

func printJSON(report analysis.DeepAnalysisReport) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitWith("failed to encode report JSON: " + err.Error())
	}
	fmt.Println(string(data))
}

func writeReport(path string, report analysis.DeepAnalysisReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(path), data, 0o644)
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func exitWith(message string) {
	fmt.Fprintln(os.Stderr, "error:", message)
	os.Exit(2)
}
