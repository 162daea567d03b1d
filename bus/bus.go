// Package bus provides in-process messaging between boulevard agents.
//
// Each agent owns a mailbox subject ("agent.<id>") and heartbeats flow
// over "heartbeat.<id>" subjects. The bus supports pub/sub and a simple
// request/reply pattern, all channel-based for concurrent use.
package bus

import (
	"errors"
	"strings"
	"time"
)

// Common errors.
var (
	ErrClosed         = errors.New("bus closed")
	ErrTimeout        = errors.New("request timeout")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Message represents a message received from the bus.
type Message struct {
	// Subject the message was published to.
	Subject string

	// Data is the message payload.
	Data []byte

	// Reply is the reply subject for request/reply pattern.
	// Empty for regular pub/sub messages.
	Reply string
}

// MessageBus provides pub/sub and request/reply messaging.
type MessageBus interface {
	// Publish sends a message to all subscribers of a subject.
	Publish(subject string, data []byte) error

	// Subscribe creates a subscription to a subject.
	// A trailing * subscribes to every subject with that prefix
	// (e.g. "heartbeat.*").
	Subscribe(subject string) (Subscription, error)

	// Request sends a request and waits for a single reply.
	// Returns ErrTimeout if no reply within timeout.
	Request(subject string, data []byte, timeout time.Duration) (*Message, error)

	// Close shuts down the bus.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// Messages returns the channel for incoming messages.
	// Channel is closed when subscription ends.
	Messages() <-chan *Message

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds bus configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// MailboxSubject returns the mailbox subject for an agent.
func MailboxSubject(agentID string) string {
	return "agent." + agentID
}

// ValidateSubject checks if a subject is valid.
func ValidateSubject(subject string) error {
	if subject == "" {
		return ErrInvalidSubject
	}
	if strings.ContainsAny(subject, " \t\n") {
		return ErrInvalidSubject
	}
	// A wildcard is only allowed as the final token.
	if i := strings.Index(subject, "*"); i >= 0 && i != len(subject)-1 {
		return ErrInvalidSubject
	}
	return nil
}

// subjectMatches reports whether a concrete subject matches a
// subscription pattern. Patterns support a trailing * wildcard.
func subjectMatches(pattern, subject string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(subject, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == subject
}
