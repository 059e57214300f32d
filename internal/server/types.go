package server

import (
	"time"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunMeta is one benchmark run: a prompt suite executed against one or more
// model endpoints. Records are stored separately and keyed by RunID.
type RunMeta struct {
	RunID        string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	PromptSuite  string              `json:"prompt_suite"`
	Status       RunStatus           `json:"status"`
	ModelConfigs []probe.ModelConfig `json:"model_configs,omitempty"`
	CreatedBy    string              `json:"created_by,omitempty"`
	CreatedAt    string              `json:"created_at"`
	CompletedAt  string              `json:"completed_at,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Principal identifies an authenticated caller.
type Principal struct {
	Subject  string `json:"subject"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
