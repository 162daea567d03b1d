// Package logging provides real-time console output for boulevard.
// Dispatch outcomes are carried in task results; this package provides
// optional structured log lines for monitoring a running environment.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel maps a config string to a Level. Unknown values default to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes level-filtered log lines to a single writer.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger writing to stdout at info level.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Event-derived logging methods ---
// Convenience helpers used by the environment and agents so that log
// lines stay uniform across the system.

// AgentRegistered logs an agent joining the environment.
func (l *Logger) AgentRegistered(agentID string, capabilities []string) {
	l.Info("agent_registered", map[string]interface{}{
		"agent":        agentID,
		"capabilities": strings.Join(capabilities, ","),
	})
}

// AgentReplaced logs a registration that overwrote an existing agent.
func (l *Logger) AgentReplaced(agentID string) {
	l.Warn("agent_replaced", map[string]interface{}{
		"agent": agentID,
	})
}

// TaskDispatched logs a task being handed to an agent.
func (l *Logger) TaskDispatched(taskID, taskType, agentID string) {
	l.Info("task_dispatched", map[string]interface{}{
		"task":  taskID,
		"type":  taskType,
		"agent": agentID,
	})
}

// TaskResult logs the outcome of a dispatched task.
func (l *Logger) TaskResult(taskID, agentID, status string, duration time.Duration) {
	l.Info("task_result", map[string]interface{}{
		"task":     taskID,
		"agent":    agentID,
		"status":   status,
		"duration": duration.String(),
	})
}

// RoutingMiss logs a task that matched no registered agent.
func (l *Logger) RoutingMiss(taskID string, targets []string) {
	l.Warn("routing_miss", map[string]interface{}{
		"task":    taskID,
		"targets": strings.Join(targets, ","),
	})
}

// BuildStart logs the start of a project scaffold.
func (l *Logger) BuildStart(framework, project string) {
	l.Info("build_start", map[string]interface{}{
		"framework": framework,
		"project":   project,
	})
}

// BuildComplete logs a finished project scaffold.
func (l *Logger) BuildComplete(framework, project string, duration time.Duration) {
	l.Info("build_complete", map[string]interface{}{
		"framework": framework,
		"project":   project,
		"duration":  duration.String(),
	})
}

// ProjectCreated logs a new local project directory.
func (l *Logger) ProjectCreated(name, path string) {
	l.Info("project_created", map[string]interface{}{
		"project": name,
		"path":    path,
	})
}

// HeartbeatMissed logs an agent presumed dead by the monitor.
func (l *Logger) HeartbeatMissed(agentID string, lastSeen time.Time) {
	l.Warn("heartbeat_missed", map[string]interface{}{
		"agent":     agentID,
		"last_seen": lastSeen.UTC().Format(time.RFC3339),
	})
}

// ConnectorCall logs an outbound call to an external service.
func (l *Logger) ConnectorCall(service, operation string, err error) {
	fields := map[string]interface{}{
		"service":   service,
		"operation": operation,
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("connector_error", fields)
	} else {
		l.Debug("connector_call", fields)
	}
}
