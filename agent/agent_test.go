package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/boulevard-dev/boulevard/bus"
	"github.com/boulevard-dev/boulevard/task"
	"github.com/boulevard-dev/boulevard/template"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder(BuilderConfig{
		ID:        "builder-1",
		Templates: template.NewManager(""),
	})
}

func TestBuilderLocalBuild(t *testing.T) {
	b := newTestBuilder(t)
	dir := filepath.Join(t.TempDir(), "demo")

	tk := task.New(task.TypeLocalBuild, []string{"builder-1"}, map[string]interface{}{
		task.KeyFramework:   "flask",
		task.KeyProjectName: "demo",
		task.KeyProjectPath: dir,
	})

	res, err := b.ProcessTask(context.Background(), tk)
	if err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if res.IsError() {
		t.Fatalf("Expected success, got %q", res.Message)
	}
	if res.Details["project_path"] != dir {
		t.Errorf("Expected project_path detail %q, got %v", dir, res.Details["project_path"])
	}
	if res.Details["start_command"] == "" {
		t.Error("Expected a start_command detail")
	}

	builds := b.Builds()
	if _, ok := builds["demo"]; !ok {
		t.Error("Expected build to be recorded")
	}
}

func TestBuilderLocalBuildRequiresPath(t *testing.T) {
	b := newTestBuilder(t)

	tk := task.New(task.TypeLocalBuild, []string{"builder-1"}, map[string]interface{}{
		task.KeyFramework:   "flask",
		task.KeyProjectName: "demo",
	})

	res, err := b.ProcessTask(context.Background(), tk)
	if err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result for missing project path")
	}
}

func TestBuilderUnknownFramework(t *testing.T) {
	b := newTestBuilder(t)
	dir := filepath.Join(t.TempDir(), "demo")

	tk := task.New(task.TypeLocalBuild, []string{"builder-1"}, map[string]interface{}{
		task.KeyFramework:   "django",
		task.KeyProjectName: "demo",
		task.KeyProjectPath: dir,
	})

	res, err := b.ProcessTask(context.Background(), tk)
	if err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result for unknown framework")
	}
}

func TestBuilderUnsupportedType(t *testing.T) {
	b := newTestBuilder(t)

	res, err := b.ProcessTask(context.Background(), task.New("deploy", nil, nil))
	if err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result for unsupported task type")
	}
}

func TestProjectManagerCreateProject(t *testing.T) {
	pm := NewProjectManager("pm-1", nil, nil)

	tk := task.New(task.TypeCreateProject, []string{"pm-1"}, map[string]interface{}{
		task.KeyName:      "demo",
		task.KeyFramework: "vue",
	})

	res, err := pm.ProcessTask(context.Background(), tk)
	if err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if res.IsError() {
		t.Fatalf("Expected success, got %q", res.Message)
	}

	active := pm.ActiveProjects()
	p, ok := active["demo"]
	if !ok {
		t.Fatal("Expected demo to be tracked")
	}
	if p.Status != "initializing" {
		t.Errorf("Expected status initializing, got %q", p.Status)
	}

	pm.SetStatus("demo", "created")
	if pm.ActiveProjects()["demo"].Status != "created" {
		t.Error("Expected status update to stick")
	}
}

func TestProjectManagerRequiresName(t *testing.T) {
	pm := NewProjectManager("pm-1", nil, nil)

	res, err := pm.ProcessTask(context.Background(), task.New(task.TypeCreateProject, nil, nil))
	if err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if !res.IsError() {
		t.Fatal("Expected error result for missing name")
	}
}

func TestBaseMailbox(t *testing.T) {
	mb := bus.NewMemoryBus(bus.DefaultConfig())
	defer mb.Close()

	sender := NewBase("a1", nil, mb)
	receiver := NewBase("a2", nil, mb)

	inbox, err := receiver.Messages()
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}

	if err := sender.SendMessage("a2", map[string]interface{}{"greeting": "hello"}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	select {
	case env := <-inbox:
		if env.From != "a1" {
			t.Errorf("Expected sender a1, got %q", env.From)
		}
		if env.Content["greeting"] != "hello" {
			t.Errorf("Unexpected content: %v", env.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for mailbox delivery")
	}
}

func TestBaseWithoutBus(t *testing.T) {
	b := NewBase("a1", []string{"build"}, nil)

	if err := b.SendMessage("a2", nil); err != bus.ErrClosed {
		t.Errorf("Expected ErrClosed without a bus, got %v", err)
	}
	if _, err := b.Messages(); err != bus.ErrClosed {
		t.Errorf("Expected ErrClosed without a bus, got %v", err)
	}
	if got := b.Capabilities(); len(got) != 1 || got[0] != "build" {
		t.Errorf("Unexpected capabilities: %v", got)
	}
}
