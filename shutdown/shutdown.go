// Package shutdown coordinates graceful teardown of the process:
// handlers register in phases, lower phases stop first, handlers in the
// same phase stop concurrently.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/boulevard-dev/boulevard/logging"
)

// Common errors.
var (
	ErrAlreadyShutdown = errors.New("shutdown already initiated")
	ErrTimeout         = errors.New("shutdown timeout exceeded")
	ErrHandlerFailed   = errors.New("one or more handlers failed")
)

// DefaultTimeout bounds ShutdownWithTimeout when no timeout is given.
const DefaultTimeout = 30 * time.Second

// defaultPhase is assigned to handlers registered without a phase.
const defaultPhase = 100

// Handler is implemented by components that need graceful shutdown.
// The context is cancelled when the shutdown timeout is reached.
type Handler interface {
	OnShutdown(ctx context.Context) error
}

// Func adapts a function to the Handler interface.
type Func func(ctx context.Context) error

// OnShutdown implements Handler.
func (f Func) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// registration holds a registered handler with its metadata.
type registration struct {
	name    string
	handler Handler
	phase   int
}

// Coordinator runs registered handlers in phase order on shutdown.
type Coordinator struct {
	log *logging.Logger

	mu       sync.Mutex
	handlers []registration

	once        sync.Once
	shutdownErr error
	done        chan struct{}
	signalCh    chan os.Signal
}

// NewCoordinator creates a shutdown coordinator.
func NewCoordinator(log *logging.Logger) *Coordinator {
	if log == nil {
		log = logging.New()
	}
	return &Coordinator{
		log:      log.WithComponent("shutdown"),
		done:     make(chan struct{}),
		signalCh: make(chan os.Signal, 1),
	}
}

// Register adds a handler at the default phase.
func (c *Coordinator) Register(name string, h Handler) {
	c.RegisterWithPhase(name, h, defaultPhase)
}

// RegisterWithPhase adds a handler at a specific phase. Lower phases
// shut down first; handlers sharing a phase shut down concurrently.
func (c *Coordinator) RegisterWithPhase(name string, h Handler, phase int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, handler: h, phase: phase})
}

// RegisterFunc registers a plain function as a handler.
func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, Func(fn))
}

// RegisterFuncWithPhase registers a plain function at a phase.
func (c *Coordinator) RegisterFuncWithPhase(name string, fn func(ctx context.Context) error, phase int) {
	c.RegisterWithPhase(name, Func(fn), phase)
}

// Shutdown runs all handlers. Subsequent calls return the first run's
// error, or ErrAlreadyShutdown while that run is still in flight.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	ran := false
	c.once.Do(func() {
		ran = true
		c.shutdownErr = c.run(ctx)
		close(c.done)
	})
	if ran {
		return c.shutdownErr
	}

	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return ErrAlreadyShutdown
	}
}

// ShutdownWithTimeout runs Shutdown bounded by a timeout.
func (c *Coordinator) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// HandleSignals triggers shutdown on SIGTERM or SIGINT.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.signalCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-c.signalCh
		c.log.Info("signal received, shutting down")
		_ = c.ShutdownWithTimeout(DefaultTimeout)
	}()
}

// Trigger initiates shutdown as if a signal had arrived.
func (c *Coordinator) Trigger() {
	select {
	case c.signalCh <- syscall.SIGTERM:
	default:
	}
}

// Done is closed when shutdown is complete.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns the shutdown error, valid once Done is closed.
func (c *Coordinator) Err() error {
	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return nil
	}
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].phase < handlers[j].phase
	})

	var failed bool
	for _, group := range groupByPhase(handlers) {
		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
		}
		if c.runPhase(ctx, group) {
			failed = true
		}
	}

	if failed {
		return ErrHandlerFailed
	}
	return nil
}

// runPhase runs one phase's handlers concurrently and reports whether
// any failed.
func (c *Coordinator) runPhase(ctx context.Context, handlers []registration) bool {
	errs := make([]error, len(handlers))
	var wg sync.WaitGroup

	for i, reg := range handlers {
		wg.Add(1)
		go func(idx int, r registration) {
			defer wg.Done()
			start := time.Now()
			err := r.handler.OnShutdown(ctx)
			errs[idx] = err
			if err != nil {
				c.log.Warn("handler failed", map[string]interface{}{
					"handler": r.name, "error": err,
				})
				return
			}
			c.log.Debug("handler stopped", map[string]interface{}{
				"handler": r.name, "duration": time.Since(start),
			})
		}(i, reg)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return true
		}
	}
	return false
}

func groupByPhase(handlers []registration) [][]registration {
	if len(handlers) == 0 {
		return nil
	}

	var groups [][]registration
	var current []registration
	phase := handlers[0].phase
	for _, h := range handlers {
		if h.phase != phase {
			groups = append(groups, current)
			current = nil
			phase = h.phase
		}
		current = append(current, h)
	}
	return append(groups, current)
}
