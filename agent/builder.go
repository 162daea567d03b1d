package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/boulevard-dev/boulevard/bus"
	"github.com/boulevard-dev/boulevard/connector"
	"github.com/boulevard-dev/boulevard/logging"
	"github.com/boulevard-dev/boulevard/memory"
	"github.com/boulevard-dev/boulevard/task"
	"github.com/boulevard-dev/boulevard/template"
)

// BuildConfig records a completed local build.
type BuildConfig struct {
	Framework    string    `json:"framework"`
	ProjectPath  string    `json:"project_path"`
	StartCommand string    `json:"start_command,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuilderConfig configures a Builder. Templates is required; everything
// else is optional.
type BuilderConfig struct {
	ID        string
	Templates *template.Manager
	Logger    *logging.Logger
	Bus       bus.MessageBus
	Store     memory.Store

	// CrewAI and Taskade, when set, receive build notifications.
	// Notification failures are logged, never fatal to the build.
	CrewAI  *connector.CrewAI
	Taskade *connector.Taskade
}

// Builder scaffolds projects from framework templates. It handles
// local_build tasks by writing the template to disk and build tasks by
// reporting the build to the configured external services.
type Builder struct {
	*Base

	templates *template.Manager
	log       *logging.Logger
	store     memory.Store
	crewai    *connector.CrewAI
	taskade   *connector.Taskade

	mu     sync.Mutex
	builds map[string]BuildConfig
}

// NewBuilder creates a builder agent.
func NewBuilder(cfg BuilderConfig) *Builder {
	id := cfg.ID
	if id == "" {
		id = "builder-1"
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	return &Builder{
		Base:      NewBase(id, []string{task.TypeLocalBuild, task.TypeBuild}, cfg.Bus),
		templates: cfg.Templates,
		log:       log.WithComponent("builder"),
		store:     cfg.Store,
		crewai:    cfg.CrewAI,
		taskade:   cfg.Taskade,
		builds:    make(map[string]BuildConfig),
	}
}

// ProcessTask handles local_build and build tasks. Unsupported task
// types and payload problems are reported as error results.
func (b *Builder) ProcessTask(ctx context.Context, t task.Task) (task.Result, error) {
	b.setBusy(true)
	defer b.setBusy(false)

	switch t.Type {
	case task.TypeLocalBuild:
		return b.localBuild(ctx, t), nil
	case task.TypeBuild:
		return b.remoteBuild(ctx, t), nil
	default:
		return task.Errorf("Unsupported task type: %s", t.Type), nil
	}
}

func (b *Builder) localBuild(ctx context.Context, t task.Task) task.Result {
	framework := t.String(task.KeyFramework)
	name := t.String(task.KeyProjectName)
	path := t.String(task.KeyProjectPath)
	if framework == "" || name == "" {
		return task.Errorf("Framework and project name are required")
	}
	if path == "" {
		return task.Errorf("Project path is required for local build")
	}

	start := time.Now()
	b.log.BuildStart(framework, name)

	if err := b.templates.Apply(framework, path, name); err != nil {
		return task.Errorf("Failed to create project: %v", err)
	}

	startCmd, err := b.templates.StartCommand(framework)
	if err != nil {
		startCmd = ""
	}

	cfg := BuildConfig{
		Framework:    framework,
		ProjectPath:  path,
		StartCommand: startCmd,
		CreatedAt:    start,
	}
	b.mu.Lock()
	b.builds[name] = cfg
	b.mu.Unlock()
	b.persistBuilds()

	b.notify(ctx, framework, name)
	b.log.BuildComplete(framework, name, time.Since(start))

	res := task.Successf("Successfully created %s project: %s", framework, name).
		WithDetail("project_path", path).
		WithDetail("framework", framework)
	if startCmd != "" {
		res = res.WithDetail("start_command", startCmd)
	}
	return res
}

func (b *Builder) remoteBuild(ctx context.Context, t task.Task) task.Result {
	framework := t.String(task.KeyFramework)
	name := t.String(task.KeyProjectName)
	if framework == "" || name == "" {
		return task.Errorf("Framework and project name are required")
	}
	if _, err := b.templates.Load(framework); err != nil {
		return task.Errorf("Unsupported framework: %s", framework)
	}

	b.notify(ctx, framework, name)
	return task.Successf("Build reported for %s project: %s", framework, name)
}

// notify reports the build to the tracking services. Failures there
// must not fail the build itself.
func (b *Builder) notify(ctx context.Context, framework, name string) {
	if b.crewai != nil {
		_, err := b.crewai.CreateJob(ctx, connector.JobSpec{
			Task: fmt.Sprintf("Build %s project %s", framework, name),
			Role: "builder",
			Goal: "scaffold the project from its framework template",
		})
		b.log.ConnectorCall("crewai", "create_job", err)
	}
	if b.taskade != nil {
		_, err := b.taskade.CreateTask(ctx, connector.TrackingTask{
			Title:       fmt.Sprintf("Build %s (%s)", name, framework),
			Description: "created by boulevard builder",
			Status:      "done",
		})
		b.log.ConnectorCall("taskade", "create_task", err)
	}
}

// persistBuilds snapshots the build log to the store, if one is set.
func (b *Builder) persistBuilds() {
	if b.store == nil {
		return
	}
	b.mu.Lock()
	data, err := json.Marshal(b.builds)
	b.mu.Unlock()
	if err != nil {
		return
	}
	if err := b.store.SaveAgentState(b.ID(), data); err != nil {
		b.log.Warn("failed to persist build state", map[string]interface{}{"error": err})
	}
}

// Builds returns a copy of the builds completed this session, keyed by
// project name.
func (b *Builder) Builds() map[string]BuildConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]BuildConfig, len(b.builds))
	for k, v := range b.builds {
		out[k] = v
	}
	return out
}
