// Package task defines the unit of work routed through a boulevard
// environment and the tagged result agents return for it.
package task

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrInvalidTask = errors.New("invalid task")
)

// Well-known task types understood by the stock agents.
const (
	TypeLocalBuild    = "local_build"
	TypeBuild         = "build"
	TypeCreateProject = "create_project"
)

// Well-known payload keys.
const (
	KeyFramework   = "framework"
	KeyProjectName = "project_name"
	KeyProjectPath = "project_path"
	KeyName        = "name"
)

// Task is a unit of work. TargetAgents lists, in order, the agent
// identifiers the task may be routed to; everything in Payload is opaque
// to the router and interpreted only by the receiving agent.
type Task struct {
	// ID uniquely identifies the task. Generated on New if empty.
	ID string `json:"id"`

	// Type tells the receiving agent what to do.
	Type string `json:"type,omitempty"`

	// TargetAgents is the ordered list of eligible agent identifiers.
	TargetAgents []string `json:"target_agents,omitempty"`

	// Payload carries task-specific fields.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// New creates a task with a generated ID.
func New(taskType string, targets []string, payload map[string]interface{}) Task {
	return Task{
		ID:           uuid.NewString(),
		Type:         taskType,
		TargetAgents: targets,
		Payload:      payload,
	}
}

// String returns a payload field as a string.
// Missing or non-string fields yield "".
func (t Task) String(key string) string {
	v, _ := t.Payload[key].(string)
	return v
}

// WithPayload returns a copy of the task with an extra payload field set.
// The original task's payload map is not modified.
func (t Task) WithPayload(key string, value interface{}) Task {
	payload := make(map[string]interface{}, len(t.Payload)+1)
	for k, v := range t.Payload {
		payload[k] = v
	}
	payload[key] = value
	t.Payload = payload
	return t
}

// Clone returns a deep-enough copy of the task: the target slice and the
// top level of the payload map are copied.
func (t Task) Clone() Task {
	clone := t
	if t.TargetAgents != nil {
		clone.TargetAgents = make([]string, len(t.TargetAgents))
		copy(clone.TargetAgents, t.TargetAgents)
	}
	if t.Payload != nil {
		clone.Payload = make(map[string]interface{}, len(t.Payload))
		for k, v := range t.Payload {
			clone.Payload[k] = v
		}
	}
	return clone
}

// Marshal serializes the task to JSON.
func (t Task) Marshal() ([]byte, error) {
	return json.Marshal(t)
}

// Unmarshal deserializes a task from JSON.
func Unmarshal(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, err
	}
	return t, nil
}
