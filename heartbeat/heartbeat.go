// Package heartbeat provides liveness signalling between agents and a
// supervising process over the message bus.
package heartbeat

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/boulevard-dev/boulevard/bus"
)

// Common errors.
var (
	ErrAlreadyStarted = errors.New("heartbeat already started")
	ErrNotStarted     = errors.New("heartbeat not started")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// SubjectPrefix is the subject prefix for heartbeat messages.
const SubjectPrefix = "heartbeat."

// Beat is a single liveness report from an agent.
type Beat struct {
	// AgentID uniquely identifies the sending agent.
	AgentID string `json:"agent_id"`

	// Timestamp when the beat was generated.
	Timestamp time.Time `json:"timestamp"`

	// Status of the agent (e.g., "idle", "busy").
	Status string `json:"status"`

	// Busy mirrors the agent's busy flag at send time.
	Busy bool `json:"busy"`
}

// Marshal serializes a beat to JSON.
func (b *Beat) Marshal() ([]byte, error) {
	return json.Marshal(b)
}

// Unmarshal deserializes a beat from JSON.
func Unmarshal(data []byte) (*Beat, error) {
	var b Beat
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Subject returns the bus subject for this beat.
func (b *Beat) Subject() string {
	return SubjectPrefix + b.AgentID
}

// SenderConfig configures a Sender.
type SenderConfig struct {
	// Bus is the message bus beats are published on.
	Bus bus.MessageBus

	// AgentID identifies the agent this sender reports for.
	AgentID string

	// Interval between beats.
	// Default: 5 seconds
	Interval time.Duration

	// Busy, when set, is sampled on every beat. Typically the agent's
	// Busy method.
	Busy func() bool
}

// Validate checks the configuration.
func (c *SenderConfig) Validate() error {
	if c.Bus == nil {
		return ErrInvalidConfig
	}
	if c.AgentID == "" {
		return ErrInvalidConfig
	}
	return nil
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Bus is the message bus beats arrive on.
	Bus bus.MessageBus

	// Timeout for considering an agent dead.
	// Should be 2-3x the expected beat interval.
	// Default: 15 seconds
	Timeout time.Duration

	// CheckInterval for the dead agent checker.
	// Default: 1 second
	CheckInterval time.Duration
}

// Validate checks the configuration.
func (c *MonitorConfig) Validate() error {
	if c.Bus == nil {
		return ErrInvalidConfig
	}
	return nil
}

const (
	defaultInterval      = 5 * time.Second
	defaultTimeout       = 15 * time.Second
	defaultCheckInterval = time.Second
)
