package streaming

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSubscribeAndPublishDelivers(t *testing.T) {
	m := NewManager()
	threadID := uuid.New()
	sub := m.Subscribe(threadID)
	defer sub.Unsubscribe()

	delivered := m.Publish(threadID, []byte(`{"hello":"world"}`))
	if delivered != 1 {
		t.Fatalf("Publish() delivered = %d, want 1", delivered)
	}

	select {
	case msg := <-sub.Receive():
		if string(msg) != `{"hello":"world"}` {
			t.Fatalf("Receive() = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
	}
}

func TestPublishWithoutSubscribersReturnsZero(t *testing.T) {
	m := NewManager()
	if got := m.Publish(uuid.New(), []byte("x")); got != 0 {
		t.Fatalf("Publish() = %d, want 0", got)
	}
}

func TestCleanupUnusedDropsEmptyThreads(t *testing.T) {
	m := NewManager()
	threadID := uuid.New()
	sub := m.Subscribe(threadID)
	sub.Unsubscribe()

	m.CleanupUnused()

	m.mu.RLock()
	_, exists := m.lines[threadID]
	m.mu.RUnlock()
	if exists {
		t.Fatalf("expected thread table to be removed after cleanup")
	}
}

func TestSubscribeIsolatesByThread(t *testing.T) {
	m := NewManager()
	threadA := uuid.New()
	threadB := uuid.New()
	subA := m.Subscribe(threadA)
	defer subA.Unsubscribe()

	m.Publish(threadB, []byte("for-b"))

	select {
	case <-subA.Receive():
		t.Fatalf("subscriber of thread A should not receive thread B's publish")
	default:
	}
}
