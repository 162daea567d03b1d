package agent

import (
	"context"
	"sync"
	"time"

	"github.com/boulevard-dev/boulevard/bus"
	"github.com/boulevard-dev/boulevard/logging"
	"github.com/boulevard-dev/boulevard/task"
)

// ProjectStatus tracks a project the manager is coordinating.
type ProjectStatus struct {
	Name      string    `json:"name"`
	Framework string    `json:"framework,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectManager tracks project lifecycles. It handles create_project
// tasks by recording the project as initializing; the builder then
// takes over the actual scaffolding.
type ProjectManager struct {
	*Base

	log *logging.Logger

	mu     sync.Mutex
	active map[string]ProjectStatus
}

// NewProjectManager creates a project manager agent. b may be nil.
func NewProjectManager(id string, log *logging.Logger, b bus.MessageBus) *ProjectManager {
	if id == "" {
		id = "pm-1"
	}
	if log == nil {
		log = logging.New()
	}
	return &ProjectManager{
		Base:   NewBase(id, []string{task.TypeCreateProject}, b),
		log:    log.WithComponent("pm"),
		active: make(map[string]ProjectStatus),
	}
}

// ProcessTask handles create_project tasks.
func (m *ProjectManager) ProcessTask(ctx context.Context, t task.Task) (task.Result, error) {
	m.setBusy(true)
	defer m.setBusy(false)

	if t.Type != task.TypeCreateProject {
		return task.Errorf("Unsupported task type: %s", t.Type), nil
	}

	name := t.String(task.KeyName)
	if name == "" {
		name = t.String(task.KeyProjectName)
	}
	if name == "" {
		return task.Errorf("Project name is required"), nil
	}

	status := ProjectStatus{
		Name:      name,
		Framework: t.String(task.KeyFramework),
		Status:    "initializing",
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.active[name] = status
	m.mu.Unlock()

	m.log.Info("project initialized", map[string]interface{}{"project": name})
	return task.Successf("Project %s initialized", name).
		WithDetail("project", name).
		WithDetail("status", status.Status), nil
}

// SetStatus updates the tracked status for a project the manager knows
// about. Unknown projects are ignored.
func (m *ProjectManager) SetStatus(name, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.active[name]; ok {
		p.Status = status
		m.active[name] = p
	}
}

// ActiveProjects returns a copy of the tracked projects.
func (m *ProjectManager) ActiveProjects() map[string]ProjectStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ProjectStatus, len(m.active))
	for k, v := range m.active {
		out[k] = v
	}
	return out
}
