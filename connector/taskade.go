package connector

import "context"

// Taskade creates tracking items in a Taskade workspace.
type Taskade struct {
	client
}

// TrackingTask is a Taskade item.
type TrackingTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TrackingItem is the created item as reported by Taskade.
type TrackingItem struct {
	ID string `json:"id"`
}

// NewTaskade creates a Taskade connector.
func NewTaskade(baseURL, apiKey string, opts ...Option) *Taskade {
	return &Taskade{client: newClient("taskade", baseURL, apiKey, opts...)}
}

// Authenticate verifies the API key.
func (c *Taskade) Authenticate(ctx context.Context) error {
	return c.getJSON(ctx, "/auth", nil)
}

// CreateTask creates a tracking item.
func (c *Taskade) CreateTask(ctx context.Context, t TrackingTask) (*TrackingItem, error) {
	var item TrackingItem
	if err := c.postJSON(ctx, "/tasks", t, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
