package registry

import (
	"fmt"
	"time"
)

// Status tracks how far a task type's worker has progressed.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusVerified   Status = "verified"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ActivityRegistry is configs/activity-registry.json: one entry per Zeebe
// task type served by the worker manager.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	// Category is the worker group under internal/workers.
	Category string `json:"category"`
	Version  string `json:"version"`
	TaskType string `json:"taskType"`
	Status   Status `json:"implementationStatus"`

	// InputSchema is enforced on every job before the handler runs.
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`

	// ErrorCodes are the BPMN error codes the worker may throw.
	ErrorCodes []string `json:"errorCodes"`
	Timeout    string   `json:"timeout"`
	Retries    int      `json:"retries"`
	// Workflows are the BPMN process ids that use the task type.
	Workflows []string `json:"workflows"`
}

// JobTimeout parses Timeout. An empty value yields zero.
func (a Activity) JobTimeout() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s: invalid timeout %q", a.ID, a.Timeout)
	}
	return d, nil
}
