package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestShutdownRunsHandlersInPhaseOrder(t *testing.T) {
	c := NewCoordinator(nil)

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	c.RegisterFuncWithPhase("last", record("last"), 200)
	c.RegisterFuncWithPhase("first", record("first"), 1)
	c.RegisterFunc("middle", record("middle"))

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	want := []string{"first", "middle", "last"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

func TestShutdownSamePhaseConcurrent(t *testing.T) {
	c := NewCoordinator(nil)

	release := make(chan struct{})
	var arrived sync.WaitGroup
	arrived.Add(2)
	blocker := func(context.Context) error {
		arrived.Done()
		<-release
		return nil
	}
	c.RegisterFunc("a", blocker)
	c.RegisterFunc("b", blocker)

	done := make(chan error, 1)
	go func() { done <- c.Shutdown(context.Background()) }()

	// Both handlers must be running before either is released.
	waitCh := make(chan struct{})
	go func() { arrived.Wait(); close(waitCh) }()
	select {
	case <-waitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Handlers in one phase did not run concurrently")
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestShutdownContinuesPastFailure(t *testing.T) {
	c := NewCoordinator(nil)

	var secondRan bool
	c.RegisterFuncWithPhase("bad", func(context.Context) error {
		return errors.New("boom")
	}, 1)
	c.RegisterFuncWithPhase("good", func(context.Context) error {
		secondRan = true
		return nil
	}, 2)

	if err := c.Shutdown(context.Background()); err != ErrHandlerFailed {
		t.Errorf("Expected ErrHandlerFailed, got %v", err)
	}
	if !secondRan {
		t.Error("Expected later phase to run despite earlier failure")
	}
}

func TestShutdownOnlyOnce(t *testing.T) {
	c := NewCoordinator(nil)

	var runs int
	c.RegisterFunc("counter", func(context.Context) error {
		runs++
		return nil
	})

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Second Shutdown returned %v", err)
	}
	if runs != 1 {
		t.Errorf("Expected handlers to run once, got %d", runs)
	}

	select {
	case <-c.Done():
	default:
		t.Error("Expected Done to be closed")
	}
	if c.Err() != nil {
		t.Errorf("Expected nil Err, got %v", c.Err())
	}
}

func TestShutdownTimeout(t *testing.T) {
	c := NewCoordinator(nil)

	c.RegisterFuncWithPhase("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 1)
	c.RegisterFuncWithPhase("never", func(context.Context) error {
		t.Error("Handler after the deadline should not run")
		return nil
	}, 2)

	err := c.ShutdownWithTimeout(20 * time.Millisecond)
	if err != ErrTimeout && err != ErrHandlerFailed {
		t.Errorf("Expected timeout-driven failure, got %v", err)
	}
}

func TestTrigger(t *testing.T) {
	c := NewCoordinator(nil)

	var ran bool
	c.RegisterFunc("h", func(context.Context) error {
		ran = true
		return nil
	})

	c.HandleSignals()
	c.Trigger()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not complete after Trigger")
	}
	if !ran {
		t.Error("Expected handler to run")
	}
}
