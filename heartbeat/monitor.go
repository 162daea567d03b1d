package heartbeat

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boulevard-dev/boulevard/bus"
)

// Monitor tracks beats from all agents and reports the ones that go
// quiet.
type Monitor struct {
	bus           bus.MessageBus
	timeout       time.Duration
	checkInterval time.Duration

	mu       sync.RWMutex
	lastSeen map[string]*Beat
	deadCBs  []func(string)
	reported map[string]bool

	running atomic.Bool
	sub     bus.Subscription
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMonitor creates a heartbeat monitor.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	checkInterval := cfg.CheckInterval
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}

	return &Monitor{
		bus:           cfg.Bus,
		timeout:       timeout,
		checkInterval: checkInterval,
		lastSeen:      make(map[string]*Beat),
		reported:      make(map[string]bool),
	}, nil
}

// Start subscribes to all beat subjects and begins checking for dead
// agents.
func (m *Monitor) Start() error {
	if m.running.Swap(true) {
		return ErrAlreadyStarted
	}

	sub, err := m.bus.Subscribe(SubjectPrefix + "*")
	if err != nil {
		m.running.Store(false)
		return err
	}
	m.sub = sub

	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go m.run()
	return nil
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case msg, ok := <-m.sub.Messages():
			if !ok {
				return
			}
			m.process(msg)
		case <-ticker.C:
			m.checkDead()
		}
	}
}

func (m *Monitor) process(msg *bus.Message) {
	beat, err := Unmarshal(msg.Data)
	if err != nil {
		return
	}
	if beat.AgentID == "" && strings.HasPrefix(msg.Subject, SubjectPrefix) {
		beat.AgentID = strings.TrimPrefix(msg.Subject, SubjectPrefix)
	}

	m.mu.Lock()
	m.lastSeen[beat.AgentID] = beat
	delete(m.reported, beat.AgentID)
	m.mu.Unlock()
}

// checkDead invokes the dead callbacks once per agent that has gone
// quiet for longer than the timeout.
func (m *Monitor) checkDead() {
	now := time.Now()
	var dead []string

	m.mu.RLock()
	for agentID, beat := range m.lastSeen {
		if now.Sub(beat.Timestamp) > m.timeout && !m.reported[agentID] {
			dead = append(dead, agentID)
		}
	}
	callbacks := make([]func(string), len(m.deadCBs))
	copy(callbacks, m.deadCBs)
	m.mu.RUnlock()

	if len(dead) == 0 {
		return
	}

	m.mu.Lock()
	for _, id := range dead {
		m.reported[id] = true
	}
	m.mu.Unlock()

	for _, agentID := range dead {
		for _, cb := range callbacks {
			cb(agentID)
		}
	}
}

// IsAlive checks if an agent has sent a beat within timeout.
func (m *Monitor) IsAlive(agentID string, timeout time.Duration) bool {
	m.mu.RLock()
	beat, ok := m.lastSeen[agentID]
	m.mu.RUnlock()

	if !ok {
		return false
	}
	return time.Since(beat.Timestamp) <= timeout
}

// LastBeat returns the last beat from an agent, or nil.
func (m *Monitor) LastBeat(agentID string) *Beat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSeen[agentID]
}

// OnDead registers a callback for when an agent is presumed dead. The
// callback receives the agent ID and fires once per quiet period.
func (m *Monitor) OnDead(callback func(agentID string)) {
	m.mu.Lock()
	m.deadCBs = append(m.deadCBs, callback)
	m.mu.Unlock()
}

// Stop stops monitoring.
func (m *Monitor) Stop() error {
	if !m.running.Swap(false) {
		return ErrNotStarted
	}

	if m.sub != nil {
		m.sub.Unsubscribe()
	}

	close(m.stopCh)
	<-m.doneCh
	return nil
}
