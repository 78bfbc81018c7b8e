package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/halcyard/windrose/internal/hub"
)

func TestEventStreamPublishSubscribe(t *testing.T) {
	es, err := hub.NewEventStream(testRedisURL, testLogger)
	if err != nil {
		t.Fatalf("connect event stream: %v", err)
	}
	defer es.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	events := es.Subscribe(ctx)
	// Subscribe reads from the tail, give the reader a moment to attach.
	time.Sleep(200 * time.Millisecond)

	sent := &hub.Event{
		ID:        uuid.New().String(),
		TaskID:    "task-42",
		Kind:      "phase",
		Detail:    "consult",
		Timestamp: time.Now().UTC(),
	}
	if err := es.Publish(ctx, sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-events:
		if got.ID != sent.ID {
			t.Errorf("got event %s, want %s", got.ID, sent.ID)
		}
		if got.TaskID != "task-42" || got.Kind != "phase" {
			t.Errorf("event fields lost in transit: %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("no event received before timeout")
	}
}

func TestEventStreamHubTraffic(t *testing.T) {
	es, err := hub.NewEventStream(testRedisURL, testLogger)
	if err != nil {
		t.Fatalf("connect event stream: %v", err)
	}
	defer es.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	events := es.Subscribe(ctx)
	time.Sleep(200 * time.Millisecond)

	for i := 0; i < 3; i++ {
		ev := &hub.Event{
			ID:        uuid.New().String(),
			Kind:      "message",
			Sender:    "coordinator-1",
			Receiver:  "advisor-1",
			Detail:    "broadcast",
			Timestamp: time.Now().UTC(),
		}
		if err := es.Publish(ctx, ev); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	received := 0
	for received < 3 {
		select {
		case <-events:
			received++
		case <-ctx.Done():
			t.Fatalf("received %d of 3 events before timeout", received)
		}
	}
}
