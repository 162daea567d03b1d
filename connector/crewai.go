package connector

import "context"

// CrewAI creates agent jobs in a CrewAI deployment.
type CrewAI struct {
	client
}

// JobSpec describes a CrewAI agent job.
type JobSpec struct {
	Task string `json:"task"`
	Role string `json:"role"`
	Goal string `json:"goal"`
}

// Job is the created job as reported by CrewAI.
type Job struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// NewCrewAI creates a CrewAI connector.
func NewCrewAI(baseURL, apiKey string, opts ...Option) *CrewAI {
	return &CrewAI{client: newClient("crewai", baseURL, apiKey, opts...)}
}

// Authenticate verifies the API key.
func (c *CrewAI) Authenticate(ctx context.Context) error {
	return c.getJSON(ctx, "/auth", nil)
}

// CreateJob creates an agent job.
func (c *CrewAI) CreateJob(ctx context.Context, spec JobSpec) (*Job, error) {
	var job Job
	if err := c.postJSON(ctx, "/agents", spec, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
