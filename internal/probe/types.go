package probe

// Category labels the behavioral dimension a prompt is designed to exercise.
type Category string

const (
	CategoryIdentity    Category = "identity"
	CategoryCapability  Category = "capability"
	CategoryFingerprint Category = "fingerprint"
)

// Record is one prompt sent to a model endpoint and everything captured about
// the exchange. Records are produced once by the benchmark runner and never
// mutated afterwards.
type Record struct {
	ID               string   `json:"id"`
	RunID            string   `json:"run_id"`
	ModelName        string   `json:"model_name"`
	Provider         string   `json:"provider"`
	APIBaseURL       string   `json:"api_base_url,omitempty"`
	PromptCategory   Category `json:"prompt_category"`
	PromptText       string   `json:"prompt_text"`
	ResponseText     string   `json:"response_text"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	LatencyMS        *float64 `json:"latency_ms,omitempty"`
	PromptTokens     *int     `json:"prompt_tokens,omitempty"`
	CompletionTokens *int     `json:"completion_tokens,omitempty"`
	TotalTokens      *int     `json:"total_tokens,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

// IsError reports whether the provider call behind this record failed.
func (r Record) IsError() bool {
	return r.ErrorMessage != ""
}

// IsValid reports whether the record carries analyzable response text.
func (r Record) IsValid() bool {
	return r.ResponseText != "" && r.ErrorMessage == ""
}

// ModelConfig describes one model endpoint to probe. The analysis core only
// reads ModelName and Provider; the adapter layer owns the rest.
type ModelConfig struct {
	ModelName  string `json:"model_name" yaml:"model_name"`
	Provider   string `json:"provider" yaml:"provider"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key"`
	APIBaseURL string `json:"api_base_url,omitempty" yaml:"api_base_url"`
	Protocol   string `json:"protocol,omitempty" yaml:"protocol"`
}
