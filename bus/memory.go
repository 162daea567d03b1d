package bus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryBus implements MessageBus using in-memory channels.
// This is the only backend boulevard needs: the environment, its agents,
// and the heartbeat monitor all live in one process.
type MemoryBus struct {
	config Config

	mu     sync.RWMutex
	subs   []*memorySub
	closed atomic.Bool

	// For request/reply
	replyMu   sync.Mutex
	replySubs map[string]chan *Message
	replySeq  uint64
}

type memorySub struct {
	pattern string
	ch      chan *Message
	closed  atomic.Bool
	bus     *MemoryBus
}

// NewMemoryBus creates a new in-memory message bus.
func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	return &MemoryBus{
		config:    cfg,
		replySubs: make(map[string]chan *Message),
	}
}

// Publish sends a message to all matching subscribers.
func (b *MemoryBus) Publish(subject string, data []byte) error {
	if err := ValidateSubject(subject); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	msg := &Message{
		Subject: subject,
		Data:    data,
	}

	b.deliver(subject, msg)
	b.deliverToReply(subject, msg)

	return nil
}

// deliver sends to every subscription whose pattern matches.
func (b *MemoryBus) deliver(subject string, msg *Message) {
	b.mu.RLock()
	subs := make([]*memorySub, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.closed.Load() || !subjectMatches(sub.pattern, subject) {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// Buffer full, drop message
		}
	}
}

// deliverToReply handles reply subjects for request/reply.
func (b *MemoryBus) deliverToReply(subject string, msg *Message) {
	b.replyMu.Lock()
	ch, ok := b.replySubs[subject]
	if ok {
		delete(b.replySubs, subject)
	}
	b.replyMu.Unlock()

	if ok {
		select {
		case ch <- msg:
		default:
		}
		close(ch)
	}
}

// Subscribe creates a subscription to a subject or trailing-* pattern.
func (b *MemoryBus) Subscribe(subject string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		pattern: subject,
		ch:      make(chan *Message, b.config.BufferSize),
		bus:     b,
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub, nil
}

// Request sends a request and waits for reply.
func (b *MemoryBus) Request(subject string, data []byte, timeout time.Duration) (*Message, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	replySubject := b.createReplySubject()
	replyCh := make(chan *Message, 1)

	b.replyMu.Lock()
	b.replySubs[replySubject] = replyCh
	b.replyMu.Unlock()

	msg := &Message{
		Subject: subject,
		Data:    data,
		Reply:   replySubject,
	}
	b.deliver(subject, msg)

	select {
	case reply, ok := <-replyCh:
		if !ok {
			return nil, ErrClosed
		}
		return reply, nil
	case <-time.After(timeout):
		b.replyMu.Lock()
		delete(b.replySubs, replySubject)
		b.replyMu.Unlock()
		return nil, ErrTimeout
	}
}

// createReplySubject generates a unique reply subject.
func (b *MemoryBus) createReplySubject() string {
	seq := atomic.AddUint64(&b.replySeq, 1)
	return fmt.Sprintf("_INBOX.%d", seq)
}

// Close shuts down the bus and closes all subscription channels.
func (b *MemoryBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.closed.Swap(true) {
			close(sub.ch)
		}
	}
	b.subs = nil

	b.replyMu.Lock()
	for subject, ch := range b.replySubs {
		delete(b.replySubs, subject)
		close(ch)
	}
	b.replyMu.Unlock()

	return nil
}

// Messages returns the message channel.
func (s *memorySub) Messages() <-chan *Message {
	return s.ch
}

// Unsubscribe cancels the subscription.
func (s *memorySub) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	for i, sub := range s.bus.subs {
		if sub == s {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			break
		}
	}

	close(s.ch)
	return nil
}
