package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewMemoryBus(Config{})
	defer b.Close()

	sub, err := b.Subscribe(MailboxSubject("builder-1"))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := b.Publish("agent.builder-1", []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-sub.Messages():
		if string(msg.Data) != "hello" {
			t.Errorf("Expected payload 'hello', got %q", msg.Data)
		}
		if msg.Subject != "agent.builder-1" {
			t.Errorf("Expected subject agent.builder-1, got %s", msg.Subject)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for message")
	}
}

func TestSubjectIsolation(t *testing.T) {
	b := NewMemoryBus(Config{})
	defer b.Close()

	sub, _ := b.Subscribe("agent.pm-1")
	b.Publish("agent.builder-1", []byte("not for pm"))

	select {
	case msg := <-sub.Messages():
		t.Fatalf("pm-1 mailbox should not receive builder-1 traffic, got %q", msg.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWildcardSubscribe(t *testing.T) {
	b := NewMemoryBus(Config{})
	defer b.Close()

	sub, err := b.Subscribe("heartbeat.*")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish("heartbeat.builder-1", []byte("beat1"))
	b.Publish("heartbeat.pm-1", []byte("beat2"))
	b.Publish("agent.builder-1", []byte("mail"))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-sub.Messages():
			got[msg.Subject] = true
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for heartbeats")
		}
	}
	if !got["heartbeat.builder-1"] || !got["heartbeat.pm-1"] {
		t.Errorf("Expected both heartbeat subjects, got %v", got)
	}

	select {
	case msg := <-sub.Messages():
		t.Fatalf("Wildcard heartbeat.* should not match %s", msg.Subject)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRequestReply(t *testing.T) {
	b := NewMemoryBus(Config{})
	defer b.Close()

	sub, _ := b.Subscribe("agent.builder-1")
	go func() {
		msg := <-sub.Messages()
		b.Publish(msg.Reply, []byte("done"))
	}()

	reply, err := b.Request("agent.builder-1", []byte("build"), time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(reply.Data) != "done" {
		t.Errorf("Expected reply 'done', got %q", reply.Data)
	}
}

func TestRequestTimeout(t *testing.T) {
	b := NewMemoryBus(Config{})
	defer b.Close()

	_, err := b.Request("agent.nobody", []byte("ping"), 50*time.Millisecond)
	if err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewMemoryBus(Config{})
	defer b.Close()

	sub, _ := b.Subscribe("agent.builder-1")
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	// Channel must be closed
	if _, ok := <-sub.Messages(); ok {
		t.Error("Expected closed channel after Unsubscribe")
	}

	// Publishing afterwards must not panic
	if err := b.Publish("agent.builder-1", []byte("late")); err != nil {
		t.Errorf("Publish after unsubscribe failed: %v", err)
	}
}

func TestClosedBus(t *testing.T) {
	b := NewMemoryBus(Config{})
	b.Close()

	if err := b.Publish("agent.x", nil); err != ErrClosed {
		t.Errorf("Expected ErrClosed on publish, got %v", err)
	}
	if _, err := b.Subscribe("agent.x"); err != ErrClosed {
		t.Errorf("Expected ErrClosed on subscribe, got %v", err)
	}
	// Double close is allowed
	if err := b.Close(); err != nil {
		t.Errorf("Second Close should be nil, got %v", err)
	}
}

func TestValidateSubject(t *testing.T) {
	valid := []string{"agent.builder-1", "heartbeat.*", "a"}
	for _, s := range valid {
		if err := ValidateSubject(s); err != nil {
			t.Errorf("ValidateSubject(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "has space", "mid*dle.x"}
	for _, s := range invalid {
		if err := ValidateSubject(s); err == nil {
			t.Errorf("ValidateSubject(%q) = nil, want error", s)
		}
	}
}
