// Package memory provides persistent storage for boulevard: project
// records created by the builder and opaque per-agent state blobs.
package memory

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrClosed      = errors.New("store closed")
	ErrInvalidName = errors.New("invalid record name")
)

// ProjectRecord describes a scaffolded project.
type ProjectRecord struct {
	// Name is the project name, unique within the store.
	Name string `json:"name"`

	// Framework the project was scaffolded from.
	Framework string `json:"framework"`

	// Status of the project (e.g. "created").
	Status string `json:"status"`

	// Path is the local project directory.
	Path string `json:"path"`

	// StartCommand launches the project.
	StartCommand string `json:"start_command,omitempty"`

	// CreatedAt is when the record was first stored.
	CreatedAt time.Time `json:"created_at"`

	// Details carries additional build output.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Store is the interface for boulevard's persistence layer.
type Store interface {
	// SaveProject stores or replaces a project record.
	// CreatedAt is set on first save if zero.
	SaveProject(record ProjectRecord) error

	// Project retrieves a project record by name.
	// Returns ErrNotFound if no such project exists.
	Project(name string) (*ProjectRecord, error)

	// ListProjects returns all project records sorted by name.
	ListProjects() ([]ProjectRecord, error)

	// DeleteProject removes a project record.
	// Returns ErrNotFound if no such project exists.
	DeleteProject(name string) error

	// SaveAgentState stores an opaque state blob for an agent.
	SaveAgentState(agentID string, state []byte) error

	// AgentState retrieves an agent's state blob.
	// Returns ErrNotFound if the agent has no stored state.
	AgentState(agentID string) ([]byte, error)

	// Close releases resources held by the store.
	Close() error
}

// validateName checks a project or agent identifier used as a key.
func validateName(name string) error {
	if name == "" || len(name) > 256 {
		return ErrInvalidName
	}
	return nil
}
