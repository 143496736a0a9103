package api

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskboard-api/domain"
)

func feedEvent(eventType string) domain.Activity {
	return domain.Activity{
		ID:        uuid.NewString(),
		TaskID:    uuid.NewString(),
		Type:      eventType,
		Timestamp: nextTimestamp(),
	}
}

func TestActivityFeedDeliversToQueue(t *testing.T) {
	store := newMemStore()
	feed := NewActivityFeed(store, quietLogger(), ActivityFeedConfig{Workers: 2, Buffer: 16})

	feed.Publish("actor-a", []domain.Activity{feedEvent(domain.ActivityTaskCreated)})
	feed.Publish("actor-b", []domain.Activity{feedEvent(domain.ActivityTaskDeleted)})
	feed.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.activities) != 2 {
		t.Fatalf("expected 2 enqueued activities, got %d", len(store.activities))
	}
	actors := map[string]bool{}
	for _, env := range store.activities {
		actors[env.ActorID] = true
	}
	if !actors["actor-a"] || !actors["actor-b"] {
		t.Fatalf("unexpected actors: %v", actors)
	}
}

func TestActivityFeedCloseDrainsPending(t *testing.T) {
	store := newMemStore()
	feed := NewActivityFeed(store, quietLogger(), ActivityFeedConfig{Workers: 1, Buffer: 64})

	const n = 50
	for i := 0; i < n; i++ {
		feed.Publish("actor", []domain.Activity{feedEvent(domain.ActivityTaskUpdated)})
	}
	feed.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.activities) != n {
		t.Fatalf("expected %d activities after close, got %d", n, len(store.activities))
	}
}

func TestActivityFeedPublishAfterCloseIsIgnored(t *testing.T) {
	store := newMemStore()
	feed := NewActivityFeed(store, quietLogger(), ActivityFeedConfig{Workers: 1, Buffer: 4})
	feed.Close()

	feed.Publish("actor", []domain.Activity{feedEvent(domain.ActivityTaskCreated)})

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.activities) != 0 {
		t.Fatalf("expected no activities after close, got %d", len(store.activities))
	}
}

func TestActivityFeedSaturationDrops(t *testing.T) {
	store := newMemStore()
	block := make(chan struct{})
	slow := &gatedStore{memStore: store, gate: block}

	feed := NewActivityFeed(slow, quietLogger(), ActivityFeedConfig{
		Workers:        1,
		Buffer:         1,
		HandoffTimeout: 10 * time.Millisecond,
	})

	// The first event occupies the worker, the second fills the buffer, the
	// rest must be dropped once the handoff timeout passes.
	for i := 0; i < 6; i++ {
		feed.Publish("actor", []domain.Activity{feedEvent(domain.ActivityTaskCreated)})
	}
	close(block)
	feed.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.activities) == 0 || len(store.activities) >= 6 {
		t.Fatalf("expected partial delivery under saturation, got %d", len(store.activities))
	}
}

// gatedStore blocks EnqueueActivities until the gate closes.
type gatedStore struct {
	*memStore
	gate chan struct{}
}

func (g *gatedStore) EnqueueActivities(ctx context.Context, actorID string, events []domain.Activity) error {
	<-g.gate
	return g.memStore.EnqueueActivities(ctx, actorID, events)
}
