// Package agent defines the agent contract the environment routes tasks
// to, plus the stock agents boulevard ships: a builder that scaffolds
// projects and a project manager that tracks them.
package agent

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/boulevard-dev/boulevard/bus"
	"github.com/boulevard-dev/boulevard/task"
)

// Agent is a named unit capable of processing a task.
//
// ProcessTask may block until the task completes; the environment
// enforces no timeout. An error return signals an agent-side fault and
// is passed through to the dispatcher's caller untranslated. Routine
// task-level failures (unsupported type, bad payload) are reported as
// error-status results instead.
type Agent interface {
	// ID returns the agent's unique identifier.
	ID() string

	// ProcessTask processes a task and returns its result.
	ProcessTask(ctx context.Context, t task.Task) (task.Result, error)
}

// Envelope is a message exchanged directly between agents.
type Envelope struct {
	// From is the sending agent's ID.
	From string `json:"from"`

	// Content is the message payload.
	Content map[string]interface{} `json:"content"`
}

// Base carries the identity, busy flag and mailbox shared by the stock
// agents. Embed it and implement ProcessTask.
type Base struct {
	id           string
	capabilities []string
	busy         atomic.Bool

	bus bus.MessageBus

	mailboxOnce sync.Once
	mailboxErr  error
	mailbox     chan Envelope
}

// NewBase creates agent plumbing for the given identifier. b may be nil
// when the agent does not exchange peer messages.
func NewBase(id string, capabilities []string, b bus.MessageBus) *Base {
	return &Base{
		id:           id,
		capabilities: capabilities,
		bus:          b,
	}
}

// ID returns the agent's unique identifier.
func (b *Base) ID() string {
	return b.id
}

// Capabilities returns a copy of the agent's capability list.
func (b *Base) Capabilities() []string {
	caps := make([]string, len(b.capabilities))
	copy(caps, b.capabilities)
	return caps
}

// Busy reports whether the agent is currently processing a task.
func (b *Base) Busy() bool {
	return b.busy.Load()
}

// setBusy flips the busy flag around task processing.
func (b *Base) setBusy(v bool) {
	b.busy.Store(v)
}

// SendMessage delivers an envelope to another agent's mailbox.
func (b *Base) SendMessage(to string, content map[string]interface{}) error {
	if b.bus == nil {
		return bus.ErrClosed
	}
	data, err := json.Marshal(Envelope{From: b.id, Content: content})
	if err != nil {
		return err
	}
	return b.bus.Publish(bus.MailboxSubject(to), data)
}

// Messages returns the agent's mailbox channel, subscribing on first
// use. The channel closes when the bus shuts down.
func (b *Base) Messages() (<-chan Envelope, error) {
	b.mailboxOnce.Do(func() {
		if b.bus == nil {
			b.mailboxErr = bus.ErrClosed
			return
		}
		sub, err := b.bus.Subscribe(bus.MailboxSubject(b.id))
		if err != nil {
			b.mailboxErr = err
			return
		}

		b.mailbox = make(chan Envelope, 16)
		go func() {
			defer close(b.mailbox)
			for msg := range sub.Messages() {
				var env Envelope
				if err := json.Unmarshal(msg.Data, &env); err != nil {
					continue // malformed peer message, drop
				}
				select {
				case b.mailbox <- env:
				default:
				}
			}
		}()
	})
	return b.mailbox, b.mailboxErr
}
