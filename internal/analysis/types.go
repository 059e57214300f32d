package analysis

import "github.com/mintesnot-teshome/llm-verify/internal/probe"

// Severity ranks a red flag's weight in the final verdict.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// CompareVerdict is the outcome of a baseline-vs-suspect run comparison.
type CompareVerdict string

const (
	CompareMatch        CompareVerdict = "MATCH"
	CompareMismatch     CompareVerdict = "MISMATCH"
	CompareInconclusive CompareVerdict = "INCONCLUSIVE"
)

// PairVerdict is the outcome of a fingerprint-level cross-model comparison.
type PairVerdict string

const (
	PairSameModel       PairVerdict = "SAME_MODEL"
	PairDifferentModels PairVerdict = "DIFFERENT_MODELS"
	PairInconclusive    PairVerdict = "INCONCLUSIVE"
)

// OverallVerdict is the final judgment for a full deep analysis.
type OverallVerdict string

const (
	VerdictFraudDetected OverallVerdict = "FRAUD_DETECTED"
	VerdictLegitimate    OverallVerdict = "LEGITIMATE"
	VerdictInconclusive  OverallVerdict = "INCONCLUSIVE"
)

// WordCount is one entry in a fingerprint's most-frequent-words list.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Vocabulary holds the word-level metrics of a fingerprint.
type Vocabulary struct {
	TotalWords      int         `json:"total_words"`
	UniqueWords     int         `json:"unique_words"`
	UniqueRatio     float64     `json:"unique_ratio"`
	Top20Words      []WordCount `json:"top_20_words"`
	HedgingRatio    float64     `json:"hedging_ratio"`
	ConfidenceRatio float64     `json:"confidence_ratio"`
}

// Metadata holds the operational metrics of a fingerprint. Latency and token
// averages are nil when no record carried the value.
type Metadata struct {
	AvgLatencyMS *float64 `json:"avg_latency_ms"`
	AvgTokens    *float64 `json:"avg_tokens"`
	TotalResults int      `json:"total_results"`
	ErrorCount   int      `json:"error_count"`
}

// Fingerprint is a statistical snapshot of one model's response behavior.
// When no valid record exists the Error marker is set and the sections are
// left empty; a Fingerprint is always recomputed from its input records and
// never persisted.
type Fingerprint struct {
	Error      string             `json:"error,omitempty"`
	Style      map[string]float64 `json:"style,omitempty"`
	Vocabulary *Vocabulary        `json:"vocabulary,omitempty"`
	Structure  map[string]float64 `json:"structure,omitempty"`
	Metadata   *Metadata          `json:"metadata,omitempty"`
}

// ModelReport aggregates everything learned about a single model across the
// requested suites.
type ModelReport struct {
	ModelName        string            `json:"model_name"`
	Provider         string            `json:"provider"`
	RunIDs           map[string]string `json:"run_ids,omitempty"`
	IdentityClaims   []string          `json:"identity_claims"`
	KnowledgeCutoffs []string          `json:"knowledge_cutoffs"`
	AvgLatencyMS     float64           `json:"avg_latency_ms"`
	TotalProbes      int               `json:"total_probes"`
	Errors           int               `json:"errors"`
	TimeoutRate      float64           `json:"timeout_rate"`
	Fingerprint      Fingerprint       `json:"fingerprint"`
}

// CrossModelComparison judges whether two claimed models are the same
// underlying model.
type CrossModelComparison struct {
	ModelA          string      `json:"model_a"`
	ModelB          string      `json:"model_b"`
	SimilarityScore float64     `json:"similarity_score"`
	SharedPhrases   []string    `json:"shared_phrases"`
	Verdict         PairVerdict `json:"verdict"`
}

// RedFlag is one rule-triggered piece of fraud evidence.
type RedFlag struct {
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Evidence    string   `json:"evidence,omitempty"`
}

// ComparisonScore is the result of comparing two runs dimension by dimension.
type ComparisonScore struct {
	BaselineRunID     string             `json:"baseline_run_id"`
	SuspectRunID      string             `json:"suspect_run_id"`
	OverallSimilarity float64            `json:"overall_similarity"`
	Dimensions        map[string]float64 `json:"dimensions"`
	Verdict           CompareVerdict     `json:"verdict"`
	Details           string             `json:"details"`
}

// DeepAnalysisReport is the complete output of a multi-model analysis.
type DeepAnalysisReport struct {
	Name                  string                 `json:"name"`
	StartedAt             string                 `json:"started_at"`
	CompletedAt           string                 `json:"completed_at"`
	ModelReports          []ModelReport          `json:"model_reports"`
	CrossModelComparisons []CrossModelComparison `json:"cross_model_comparisons"`
	RedFlags              []RedFlag              `json:"red_flags"`
	Verdict               OverallVerdict         `json:"verdict"`
	Summary               string                 `json:"summary"`
}

// Request configures one deep analysis.
type Request struct {
	Name         string              `json:"name"`
	ModelConfigs []probe.ModelConfig `json:"model_configs"`
	Suites       []string            `json:"suites,omitempty"`
}
