package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/boulevard-dev/boulevard/errors"
)

// Bucket names.
var (
	bucketProjects    = []byte("projects")
	bucketAgentStates = []byte("agent_states")
)

// BoltStore is a Store backed by a bbolt database file. Suitable for the
// single-process CLI: cheap to open, no server, transactional.
type BoltStore struct {
	db     *bolt.DB
	closed atomic.Bool
}

// DefaultPath returns the default database location, ~/.boulevard/boulevard.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".boulevard", "boulevard.db"), nil
}

// OpenBolt opens (creating if necessary) a bolt-backed store at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeStorage, "creating data directory")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeStorage, "opening store")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketProjects); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketAgentStates)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.WrapWithCode(err, errors.ErrCodeStorage, "initializing store buckets")
	}

	return &BoltStore{db: db}, nil
}

// SaveProject stores or replaces a project record.
func (s *BoltStore) SaveProject(record ProjectRecord) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateName(record.Name); err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInternal, "encoding project record")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProjects).Put([]byte(record.Name), data)
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeStorage, "saving project "+record.Name)
	}
	return nil
}

// Project retrieves a project record by name.
func (s *BoltStore) Project(name string) (*ProjectRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	var record *ProjectRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketProjects).Get([]byte(name))
		if data == nil {
			return ErrNotFound
		}
		var r ProjectRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return errors.WrapWithCode(err, errors.ErrCodeCorruption, "decoding project "+name)
		}
		record = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListProjects returns all project records sorted by name.
func (s *BoltStore) ListProjects() ([]ProjectRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var records []ProjectRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProjects).ForEach(func(k, v []byte) error {
			var r ProjectRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return errors.WrapWithCode(err, errors.ErrCodeCorruption, "decoding project "+string(k))
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// bbolt iterates keys in byte order already, but keep the contract
	// independent of the backend.
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// DeleteProject removes a project record.
func (s *BoltStore) DeleteProject(name string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateName(name); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		if b.Get([]byte(name)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(name))
	})
}

// SaveAgentState stores an opaque state blob for an agent.
func (s *BoltStore) SaveAgentState(agentID string, state []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateName(agentID); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAgentStates).Put([]byte(agentID), state)
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeStorage, "saving state for "+agentID)
	}
	return nil
}

// AgentState retrieves an agent's state blob.
func (s *BoltStore) AgentState(agentID string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := validateName(agentID); err != nil {
		return nil, err
	}

	var state []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAgentStates).Get([]byte(agentID))
		if data == nil {
			return ErrNotFound
		}
		state = make([]byte, len(data))
		copy(state, data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
