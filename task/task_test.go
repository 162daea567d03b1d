package task

import (
	"testing"
)

func TestNewGeneratesID(t *testing.T) {
	tk := New(TypeLocalBuild, []string{"builder-1"}, map[string]interface{}{
		KeyFramework: "flask",
	})
	if tk.ID == "" {
		t.Fatal("Expected generated task ID")
	}

	other := New(TypeLocalBuild, nil, nil)
	if tk.ID == other.ID {
		t.Error("Expected unique IDs per task")
	}
}

func TestStringAccessor(t *testing.T) {
	tk := Task{Payload: map[string]interface{}{
		KeyFramework: "vue",
		"retries":    3,
	}}

	if got := tk.String(KeyFramework); got != "vue" {
		t.Errorf("Expected framework vue, got %q", got)
	}
	if got := tk.String("retries"); got != "" {
		t.Errorf("Non-string field should yield empty string, got %q", got)
	}
	if got := tk.String("missing"); got != "" {
		t.Errorf("Missing field should yield empty string, got %q", got)
	}
}

func TestWithPayloadDoesNotMutate(t *testing.T) {
	orig := Task{Payload: map[string]interface{}{KeyFramework: "react"}}
	derived := orig.WithPayload(KeyProjectPath, "/tmp/proj")

	if derived.String(KeyProjectPath) != "/tmp/proj" {
		t.Error("Derived task should carry the new field")
	}
	if _, ok := orig.Payload[KeyProjectPath]; ok {
		t.Error("Original payload must not be mutated")
	}

	// Works on a nil payload too.
	empty := Task{}
	derived = empty.WithPayload(KeyName, "demo")
	if derived.String(KeyName) != "demo" {
		t.Error("WithPayload on empty task should set the field")
	}
}

func TestCloneIndependence(t *testing.T) {
	orig := New(TypeBuild, []string{"a", "b"}, map[string]interface{}{"k": "v"})
	clone := orig.Clone()

	clone.TargetAgents[0] = "z"
	clone.Payload["k"] = "changed"

	if orig.TargetAgents[0] != "a" {
		t.Error("Clone should not share the target slice")
	}
	if orig.Payload["k"] != "v" {
		t.Error("Clone should not share the payload map")
	}
}

func TestTaskJSON(t *testing.T) {
	orig := New(TypeCreateProject, []string{"pm-1"}, map[string]interface{}{
		KeyName:      "demo",
		KeyFramework: "fastapi",
	})

	data, err := orig.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ID != orig.ID || decoded.Type != TypeCreateProject {
		t.Errorf("Round trip lost fields: %+v", decoded)
	}
	if decoded.String(KeyName) != "demo" {
		t.Errorf("Round trip lost payload: %+v", decoded.Payload)
	}
}

func TestResultHelpers(t *testing.T) {
	ok := Successf("built %s", "demo")
	if ok.IsError() {
		t.Error("Success result should not be an error")
	}
	if ok.Message != "built demo" {
		t.Errorf("Unexpected message %q", ok.Message)
	}

	fail := Errorf("unsupported framework: %s", "django")
	if !fail.IsError() {
		t.Error("Errorf should produce an error result")
	}

	detailed := ok.WithDetail("path", "/tmp/demo")
	if detailed.Details["path"] != "/tmp/demo" {
		t.Error("WithDetail should set the field")
	}
	if ok.Details != nil {
		t.Error("WithDetail must not mutate the receiver")
	}
}
