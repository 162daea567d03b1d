// Command boulevard scaffolds and tracks framework projects through a
// small team of agents.
//
// Usage:
//
//	boulevard create <framework> <name>   scaffold a new project
//	boulevard list                        list known projects
//	boulevard templates                   list available frameworks
//	boulevard run                         run until interrupted
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boulevard-dev/boulevard/agent"
	"github.com/boulevard-dev/boulevard/bus"
	"github.com/boulevard-dev/boulevard/config"
	"github.com/boulevard-dev/boulevard/connector"
	"github.com/boulevard-dev/boulevard/environment"
	"github.com/boulevard-dev/boulevard/heartbeat"
	"github.com/boulevard-dev/boulevard/logging"
	"github.com/boulevard-dev/boulevard/memory"
	"github.com/boulevard-dev/boulevard/ratelimit"
	"github.com/boulevard-dev/boulevard/shutdown"
	"github.com/boulevard-dev/boulevard/task"
	"github.com/boulevard-dev/boulevard/template"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "boulevard:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: boulevard <command> [arguments]

Commands:
  create <framework> <name>   scaffold a new project
  list                        list known projects
  templates                   list available frameworks
  run                         run until interrupted
`)
}

func run(args []string) error {
	cfg, cfgPath, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New()
	log.SetLevel(logging.ParseLevel(cfg.LogLevel))
	if cfgPath != "" {
		log.Debug("config loaded", map[string]interface{}{"path": cfgPath})
	}

	switch args[0] {
	case "create":
		if len(args) != 3 {
			return errors.New("usage: boulevard create <framework> <name>")
		}
		return createProject(cfg, log, args[1], args[2])
	case "list":
		return listProjects(cfg)
	case "templates":
		return listTemplates(cfg)
	case "run":
		return runEnvironment(cfg, log)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// app bundles the wired-up runtime.
type app struct {
	cfg   *config.Config
	log   *logging.Logger
	store memory.Store
	bus   *bus.MemoryBus
	env   *environment.Environment
	pm    *agent.ProjectManager
}

func newApp(cfg *config.Config, log *logging.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	store, err := memory.OpenBolt(filepath.Join(cfg.DataDir, "boulevard.db"))
	if err != nil {
		return nil, err
	}

	mb := bus.NewMemoryBus(bus.DefaultConfig())
	env := environment.New(
		environment.WithLogger(log),
		environment.WithProjectsDir(cfg.ProjectsDir),
		environment.WithBus(mb),
	)

	builderCfg := agent.BuilderConfig{
		ID:        cfg.Agents.Builder,
		Templates: template.NewManager(cfg.TemplatesDir),
		Logger:    log,
		Bus:       mb,
		Store:     store,
	}
	limiter := ratelimit.NewLimiter()
	if c, ok := cfg.Connector("crewai"); ok {
		limiter.SetCapacity("crewai", 60, time.Minute)
		builderCfg.CrewAI = connector.NewCrewAI(c.BaseURL, c.APIKey, connector.WithLimiter(limiter))
	}
	if c, ok := cfg.Connector("taskade"); ok {
		limiter.SetCapacity("taskade", 60, time.Minute)
		builderCfg.Taskade = connector.NewTaskade(c.BaseURL, c.APIKey, connector.WithLimiter(limiter))
	}

	pm := agent.NewProjectManager(cfg.Agents.ProjectManager, log, mb)
	env.Register(pm)
	env.Register(agent.NewBuilder(builderCfg))

	return &app{cfg: cfg, log: log, store: store, bus: mb, env: env, pm: pm}, nil
}

func (a *app) close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store", map[string]interface{}{"error": err})
	}
}

func createProject(cfg *config.Config, log *logging.Logger, framework, name string) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	res, err := a.env.DistributeTask(ctx, task.New(task.TypeCreateProject,
		[]string{cfg.Agents.ProjectManager}, map[string]interface{}{
			task.KeyName:      name,
			task.KeyFramework: framework,
		}))
	if err != nil {
		return err
	}
	if res.IsError() {
		return errors.New(res.Message)
	}

	res, err = a.env.DistributeTask(ctx, task.New(task.TypeLocalBuild,
		[]string{cfg.Agents.Builder}, map[string]interface{}{
			task.KeyFramework:   framework,
			task.KeyProjectName: name,
		}))
	if err != nil {
		return err
	}
	if res.IsError() {
		return errors.New(res.Message)
	}
	a.pm.SetStatus(name, "created")

	record := memory.ProjectRecord{
		Name:      name,
		Framework: framework,
		Status:    "created",
		CreatedAt: time.Now(),
	}
	if path, ok := res.Details["project_path"].(string); ok {
		record.Path = path
	}
	if start, ok := res.Details["start_command"].(string); ok {
		record.StartCommand = start
	}
	if err := a.store.SaveProject(record); err != nil {
		return err
	}

	fmt.Println(res.Message)
	if record.Path != "" {
		fmt.Println("  path:", record.Path)
	}
	if record.StartCommand != "" {
		fmt.Println("  start:", record.StartCommand)
	}
	return nil
}

func listProjects(cfg *config.Config) error {
	dbPath := filepath.Join(cfg.DataDir, "boulevard.db")
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Println("No projects yet.")
		return nil
	}
	store, err := memory.OpenBolt(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	projects, err := store.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet.")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%-20s %-10s %-10s %s\n", p.Name, p.Framework, p.Status, p.Path)
	}
	return nil
}

func listTemplates(cfg *config.Config) error {
	infos, err := template.NewManager(cfg.TemplatesDir).List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Printf("%-10s %s\n", info.Framework, info.Name)
	}
	return nil
}

// runEnvironment keeps the agent environment alive until a signal
// arrives, with heartbeats flowing so a monitor can watch agent health.
func runEnvironment(cfg *config.Config, log *logging.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := shutdown.NewCoordinator(log)

	var senders []*heartbeat.Sender
	for _, id := range a.env.Agents() {
		s, err := heartbeat.NewSender(heartbeat.SenderConfig{Bus: a.bus, AgentID: id})
		if err != nil {
			return err
		}
		if err := s.Start(ctx); err != nil {
			return err
		}
		senders = append(senders, s)
	}

	monitor, err := heartbeat.NewMonitor(heartbeat.MonitorConfig{Bus: a.bus})
	if err != nil {
		return err
	}
	monitor.OnDead(func(agentID string) {
		log.HeartbeatMissed(agentID, time.Now())
	})
	if err := monitor.Start(); err != nil {
		return err
	}

	coord.RegisterFuncWithPhase("environment", func(context.Context) error {
		cancel()
		return nil
	}, 10)
	coord.RegisterFuncWithPhase("heartbeat", func(context.Context) error {
		for _, s := range senders {
			_ = s.Stop()
		}
		return monitor.Stop()
	}, 20)
	coord.RegisterFuncWithPhase("bus", func(context.Context) error {
		return a.bus.Close()
	}, 30)
	coord.RegisterFuncWithPhase("store", func(context.Context) error {
		return a.store.Close()
	}, 40)
	coord.HandleSignals()

	err = a.env.Run(ctx)

	<-coord.Done()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
