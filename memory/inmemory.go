package memory

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]ProjectRecord
	states   map[string][]byte
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]ProjectRecord),
		states:   make(map[string][]byte),
	}
}

// SaveProject stores or replaces a project record.
func (s *MemoryStore) SaveProject(record ProjectRecord) error {
	if err := validateName(record.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if record.CreatedAt.IsZero() {
		if existing, ok := s.projects[record.Name]; ok {
			record.CreatedAt = existing.CreatedAt
		} else {
			record.CreatedAt = time.Now()
		}
	}
	s.projects[record.Name] = record
	return nil
}

// Project retrieves a project record by name.
func (s *MemoryStore) Project(name string) (*ProjectRecord, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	record, ok := s.projects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// ListProjects returns all project records sorted by name.
func (s *MemoryStore) ListProjects() ([]ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	records := make([]ProjectRecord, 0, len(s.projects))
	for _, r := range s.projects {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// DeleteProject removes a project record.
func (s *MemoryStore) DeleteProject(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, ok := s.projects[name]; !ok {
		return ErrNotFound
	}
	delete(s.projects, name)
	return nil
}

// SaveAgentState stores an opaque state blob for an agent.
func (s *MemoryStore) SaveAgentState(agentID string, state []byte) error {
	if err := validateName(agentID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	blob := make([]byte, len(state))
	copy(blob, state)
	s.states[agentID] = blob
	return nil
}

// AgentState retrieves an agent's state blob.
func (s *MemoryStore) AgentState(agentID string) ([]byte, error) {
	if err := validateName(agentID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	state, ok := s.states[agentID]
	if !ok {
		return nil, ErrNotFound
	}
	blob := make([]byte, len(state))
	copy(blob, state)
	return blob, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
