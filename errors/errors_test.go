package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	err := New(ErrCodeTemplateNotFound, "no template for framework")

	if err.Code() != ErrCodeTemplateNotFound {
		t.Errorf("Expected code TEMPLATE_NOT_FOUND, got %s", err.Code())
	}
	if err.Category() != CategoryPermanent {
		t.Errorf("Expected permanent category, got %s", err.Category())
	}
	if err.Retryable() {
		t.Error("Template-not-found must not be retryable")
	}
	if err.Timestamp().IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestRetryableOverride(t *testing.T) {
	err := New(ErrCodeConnector, "connector call failed", WithRetryable(false))
	if err.Retryable() {
		t.Error("Explicit retryable=false should win over category default")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := New(ErrCodeStorage, "put failed", WithAgentID("builder-1"))
	wrapped := Wrap(inner, "saving project record")

	if wrapped.Code() != ErrCodeStorage {
		t.Errorf("Expected STORAGE code preserved, got %s", wrapped.Code())
	}
	if wrapped.AgentID() != "builder-1" {
		t.Errorf("Expected agent ID preserved, got %q", wrapped.AgentID())
	}
	if !stderrors.Is(wrapped, inner) {
		t.Error("Wrapped error should match inner via errors.Is")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapContextErrors(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, "waiting for agent")
	if err.Code() != ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT for deadline exceeded, got %s", err.Code())
	}

	err = Wrap(context.Canceled, "dispatch aborted")
	if err.Code() != ErrCodeCanceled {
		t.Errorf("Expected CANCELED, got %s", err.Code())
	}
}

func TestWrapUnknownError(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), "unexpected")
	if err.Code() != ErrCodeInternal {
		t.Errorf("Expected INTERNAL for plain errors, got %s", err.Code())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUnsupportedFramework, "unsupported framework: django")
	wrapped := Wrapf(err, "building project %s", "myapp")

	if !Is(wrapped, ErrCodeUnsupportedFramework) {
		t.Error("Is should find the code through the chain")
	}
	if Is(wrapped, ErrCodeTimeout) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeTimeout) {
		t.Error("Is should be false for unstructured errors")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	orig := New(ErrCodeConnector, "taskade returned 503",
		WithMetadata("service", "taskade"),
		WithTaskID("task-42"),
	)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Error
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Code() != ErrCodeConnector {
		t.Errorf("Expected CONNECTOR code, got %s", decoded.Code())
	}
	if decoded.Metadata()["service"] != "taskade" {
		t.Errorf("Expected metadata preserved, got %v", decoded.Metadata())
	}
	if decoded.TaskID() != "task-42" {
		t.Errorf("Expected task ID preserved, got %q", decoded.TaskID())
	}
	if !decoded.Retryable() {
		t.Error("Connector errors should stay retryable through JSON")
	}
}
