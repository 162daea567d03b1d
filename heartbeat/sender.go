package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/boulevard-dev/boulevard/bus"
)

// Sender publishes periodic beats for one agent.
type Sender struct {
	bus      bus.MessageBus
	agentID  string
	interval time.Duration
	busyFn   func() bool

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSender creates a heartbeat sender.
func NewSender(cfg SenderConfig) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Sender{
		bus:      cfg.Bus,
		agentID:  cfg.AgentID,
		interval: interval,
		busyFn:   cfg.Busy,
	}, nil
}

// Start begins sending beats at the configured interval. The first
// beat is sent immediately.
func (s *Sender) Start(ctx context.Context) error {
	if s.running.Swap(true) {
		return ErrAlreadyStarted
	}

	if ctx == nil {
		ctx = context.Background()
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx)
	return nil
}

func (s *Sender) run(ctx context.Context) {
	defer close(s.doneCh)

	s.send()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.running.Store(false)
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.send()
		}
	}
}

func (s *Sender) send() error {
	beat := &Beat{
		AgentID:   s.agentID,
		Timestamp: time.Now(),
		Status:    "idle",
	}
	if s.busyFn != nil && s.busyFn() {
		beat.Status = "busy"
		beat.Busy = true
	}

	data, err := beat.Marshal()
	if err != nil {
		return err
	}
	return s.bus.Publish(beat.Subject(), data)
}

// Stop stops sending beats.
func (s *Sender) Stop() error {
	if !s.running.Swap(false) {
		return ErrNotStarted
	}
	close(s.stopCh)
	<-s.doneCh
	return nil
}

// AgentID returns the agent this sender reports for.
func (s *Sender) AgentID() string {
	return s.agentID
}
