package services

import (
	"testing"
	"time"

	"password-heist-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, ch <-chan models.GameEvent) models.GameEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return models.GameEvent{}
	}
}

func TestBroadcaster_PublishReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster()

	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	assert.Equal(t, 2, b.SubscriberCount())

	b.Publish(models.GameEvent{ID: "e1", Type: models.EventGameStart, PuzzleID: "puzzle-1"})

	for _, ch := range []<-chan models.GameEvent{ch1, ch2} {
		event := receiveEvent(t, ch)
		assert.Equal(t, models.EventGameStart, event.Type)
		assert.Equal(t, "puzzle-1", event.PuzzleID)
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount())

	// Unsubscribing twice is a no-op.
	b.Unsubscribe(id)
}

func TestBroadcaster_PublishAfterUnsubscribeDoesNotPanic(t *testing.T) {
	b := NewBroadcaster()

	id, _ := b.Subscribe()
	b.Unsubscribe(id)

	b.Publish(models.GameEvent{ID: "e1", Type: models.EventGameEnd})
}

func TestBroadcaster_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	// Fill the buffer without draining, then publish past it. Publish must
	// return instead of blocking on the stuck subscriber.
	for i := 0; i < cap(ch)+5; i++ {
		b.Publish(models.GameEvent{ID: "overflow", Type: models.EventRoundAdvance})
	}

	done := make(chan struct{})
	go func() {
		b.Publish(models.GameEvent{ID: "final", Type: models.EventGameEnd})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// The buffered events are still all deliverable.
	drained := 0
	for {
		select {
		case <-ch:
			drained++
			continue
		default:
		}
		break
	}
	require.Equal(t, cap(ch), drained)
}
