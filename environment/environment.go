// Package environment hosts the agent registry and routes tasks to
// registered agents.
package environment

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boulevard-dev/boulevard/agent"
	"github.com/boulevard-dev/boulevard/bus"
	"github.com/boulevard-dev/boulevard/errors"
	"github.com/boulevard-dev/boulevard/logging"
	"github.com/boulevard-dev/boulevard/task"
)

// MissMessage is reported when no registered agent is targeted by a
// task. A miss is a routing outcome, not a failure: DistributeTask
// returns it with a nil error.
const MissMessage = "No suitable agent found"

// idleInterval is the keep-alive tick of Run.
const idleInterval = time.Second

// Environment owns the agent registry and dispatches tasks. The
// registry is guarded by an RWMutex: registration takes the write
// lock, dispatch reads a snapshot and releases the lock before any
// agent runs.
type Environment struct {
	log         *logging.Logger
	projectsDir string
	bus         bus.MessageBus

	registry struct {
		mu     sync.RWMutex
		agents map[string]agent.Agent
		order  []string
	}
}

// Option configures an Environment.
type Option func(*Environment)

// WithLogger sets the environment's logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Environment) {
		e.log = log.WithComponent("environment")
	}
}

// WithProjectsDir sets the directory CreateLocalProject scaffolds into.
func WithProjectsDir(dir string) Option {
	return func(e *Environment) {
		e.projectsDir = dir
	}
}

// WithBus attaches a message bus agents can use for peer messaging.
func WithBus(b bus.MessageBus) Option {
	return func(e *Environment) {
		e.bus = b
	}
}

// New creates an environment with an empty registry.
func New(opts ...Option) *Environment {
	e := &Environment{
		log:         logging.New().WithComponent("environment"),
		projectsDir: "projects",
	}
	e.registry.agents = make(map[string]agent.Agent)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bus returns the attached message bus, if any.
func (e *Environment) Bus() bus.MessageBus {
	return e.bus
}

// ProjectsDir returns the directory local projects are created under.
func (e *Environment) ProjectsDir() string {
	return e.projectsDir
}

// Register adds an agent to the registry, keyed by its ID. Registering
// an agent under an existing ID replaces the previous one; the new
// agent keeps the original registration position, so dispatch order
// stays stable for a given registration history.
func (e *Environment) Register(a agent.Agent) {
	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	id := a.ID()
	if _, exists := e.registry.agents[id]; exists {
		e.registry.agents[id] = a
		e.log.AgentReplaced(id)
		return
	}
	e.registry.agents[id] = a
	e.registry.order = append(e.registry.order, id)
	e.log.AgentRegistered(id, nil)
}

// Agents returns the registered agent IDs in registration order.
func (e *Environment) Agents() []string {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()
	ids := make([]string, len(e.registry.order))
	copy(ids, e.registry.order)
	return ids
}

// snapshot returns the registered agents in registration order.
func (e *Environment) snapshot() []agent.Agent {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()
	agents := make([]agent.Agent, 0, len(e.registry.order))
	for _, id := range e.registry.order {
		agents = append(agents, e.registry.agents[id])
	}
	return agents
}

// DistributeTask routes a task to the first registered agent, in
// registration order, whose ID appears in the task's target list, and
// returns that agent's result and error verbatim. When no agent
// matches, it returns a routing-miss result and a nil error. The
// registry lock is not held while the agent runs, and no timeout is
// imposed at this layer.
func (e *Environment) DistributeTask(ctx context.Context, t task.Task) (task.Result, error) {
	if t.Type == task.TypeLocalBuild && t.String(task.KeyProjectPath) == "" {
		prepared, err := e.prepareLocalBuild(t)
		if err != nil {
			return task.Errorf("Failed to prepare project directory: %v", err), nil
		}
		t = prepared
	}

	for _, a := range e.snapshot() {
		if !targeted(t, a.ID()) {
			continue
		}
		e.log.TaskDispatched(t.ID, t.Type, a.ID())
		start := time.Now()
		res, err := a.ProcessTask(ctx, t)
		if err != nil {
			return res, err
		}
		e.log.TaskResult(t.ID, a.ID(), res.Status, time.Since(start))
		return res, nil
	}

	e.log.RoutingMiss(t.ID, t.TargetAgents)
	return task.Errorf(MissMessage), nil
}

// targeted reports whether the agent ID appears in the task's targets.
func targeted(t task.Task, id string) bool {
	for _, target := range t.TargetAgents {
		if target == id {
			return true
		}
	}
	return false
}

// prepareLocalBuild creates the project directory under the projects
// dir and injects its path into the task payload.
func (e *Environment) prepareLocalBuild(t task.Task) (task.Task, error) {
	name := t.String(task.KeyProjectName)
	if name == "" {
		return t, errors.New(errors.ErrCodeInvalidInput, "project name is required")
	}
	path, err := e.CreateLocalProject(t.String(task.KeyFramework), name)
	if err != nil {
		return t, err
	}
	return t.WithPayload(task.KeyProjectPath, path), nil
}

// CreateLocalProject prepares the project directory and seeds it with a
// README. It returns the project path.
func (e *Environment) CreateLocalProject(framework, name string) (string, error) {
	path := filepath.Join(e.projectsDir, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCodeStorage, "creating project directory")
	}

	readme := "# " + name + "\n"
	if framework != "" {
		readme += "\nA " + framework + " project scaffolded by boulevard.\n"
	}
	if err := os.WriteFile(filepath.Join(path, "README.md"), []byte(readme), 0o644); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCodeStorage, "seeding project directory")
	}

	e.log.ProjectCreated(name, path)
	return path, nil
}

// Run keeps the environment alive until the context is cancelled. The
// loop has no side effects; it exists so a long-running process has a
// blocking call to park on. Returns the context's error on
// cancellation.
func (e *Environment) Run(ctx context.Context) error {
	ticker := time.NewTicker(idleInterval)
	defer ticker.Stop()

	e.log.Info("environment running")
	for {
		select {
		case <-ctx.Done():
			e.log.Info("environment stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
