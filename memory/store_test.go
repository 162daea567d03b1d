package memory

import (
	"path/filepath"
	"testing"
	"time"
)

// storeFactories lets every test run against both implementations.
func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"bolt": func() Store {
			s, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("OpenBolt failed: %v", err)
			}
			return s
		},
	}
}

func TestSaveAndGetProject(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			record := ProjectRecord{
				Name:         "demo",
				Framework:    "flask",
				Status:       "created",
				Path:         "/home/user/projects/demo",
				StartCommand: "venv/bin/python app.py",
			}
			if err := s.SaveProject(record); err != nil {
				t.Fatalf("SaveProject failed: %v", err)
			}

			got, err := s.Project("demo")
			if err != nil {
				t.Fatalf("Project failed: %v", err)
			}
			if got.Framework != "flask" {
				t.Errorf("Expected framework flask, got %s", got.Framework)
			}
			if got.CreatedAt.IsZero() {
				t.Error("Expected CreatedAt to be set on save")
			}
		})
	}
}

func TestProjectNotFound(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			if _, err := s.Project("ghost"); err != ErrNotFound {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestSaveProjectOverwrites(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			s.SaveProject(ProjectRecord{Name: "demo", Framework: "flask", Status: "created"})
			s.SaveProject(ProjectRecord{Name: "demo", Framework: "fastapi", Status: "created"})

			got, err := s.Project("demo")
			if err != nil {
				t.Fatalf("Project failed: %v", err)
			}
			if got.Framework != "fastapi" {
				t.Errorf("Expected last save to win, got %s", got.Framework)
			}
		})
	}
}

func TestListProjectsSorted(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			for _, n := range []string{"zeta", "alpha", "mid"} {
				if err := s.SaveProject(ProjectRecord{Name: n, Framework: "vue"}); err != nil {
					t.Fatalf("SaveProject(%s) failed: %v", n, err)
				}
			}

			records, err := s.ListProjects()
			if err != nil {
				t.Fatalf("ListProjects failed: %v", err)
			}
			if len(records) != 3 {
				t.Fatalf("Expected 3 records, got %d", len(records))
			}
			want := []string{"alpha", "mid", "zeta"}
			for i, r := range records {
				if r.Name != want[i] {
					t.Errorf("Expected %s at index %d, got %s", want[i], i, r.Name)
				}
			}
		})
	}
}

func TestDeleteProject(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			s.SaveProject(ProjectRecord{Name: "demo", Framework: "react"})
			if err := s.DeleteProject("demo"); err != nil {
				t.Fatalf("DeleteProject failed: %v", err)
			}
			if _, err := s.Project("demo"); err != ErrNotFound {
				t.Errorf("Expected ErrNotFound after delete, got %v", err)
			}
			if err := s.DeleteProject("demo"); err != ErrNotFound {
				t.Errorf("Expected ErrNotFound on double delete, got %v", err)
			}
		})
	}
}

func TestAgentState(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			if err := s.SaveAgentState("builder-1", []byte(`{"busy":false}`)); err != nil {
				t.Fatalf("SaveAgentState failed: %v", err)
			}

			state, err := s.AgentState("builder-1")
			if err != nil {
				t.Fatalf("AgentState failed: %v", err)
			}
			if string(state) != `{"busy":false}` {
				t.Errorf("Unexpected state: %s", state)
			}

			if _, err := s.AgentState("ghost"); err != ErrNotFound {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestInvalidNames(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	if err := s.SaveProject(ProjectRecord{Name: ""}); err != ErrInvalidName {
		t.Errorf("Expected ErrInvalidName for empty name, got %v", err)
	}
	if _, err := s.Project(""); err != ErrInvalidName {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	s := NewMemoryStore()
	s.Close()

	if err := s.SaveProject(ProjectRecord{Name: "x"}); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := s.ListProjects(); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	created := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := s.SaveProject(ProjectRecord{Name: "keeper", Framework: "fastapi", CreatedAt: created}); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Project("keeper")
	if err != nil {
		t.Fatalf("Project after reopen failed: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected CreatedAt %v preserved, got %v", created, got.CreatedAt)
	}
}
