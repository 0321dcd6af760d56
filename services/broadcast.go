package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"password-heist-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Broadcaster fans lifecycle events out to all currently-subscribed listeners.
// Delivery is best effort: a subscriber whose buffer is full misses the event
// and is expected to reconcile by polling current state, same as a listener
// that connects after the event fired.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]chan models.GameEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]chan models.GameEvent)}
}

// Subscribe registers a listener and returns its id and event channel.
func (b *Broadcaster) Subscribe() (string, <-chan models.GameEvent) {
	id := uuid.NewString()
	ch := make(chan models.GameEvent, 16)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe drops a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber that can take it.
func (b *Broadcaster) Publish(event models.GameEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Printf("⚠️  [BROADCAST] Subscriber %s too slow, dropping %s", id, event.Type)
		}
	}
}

// SubscriberCount returns the number of connected listeners.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// StreamGameEvents streams lifecycle events to a spectator or player client
// over SSE. Clients that (re)connect mid-game get no replay; they poll the
// state endpoints to catch up, then ride the stream.
func (b *Broadcaster) StreamGameEvents(c *fiber.Ctx) error {
	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	subID, events := b.Subscribe()
	ctx := c.Context()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer b.Unsubscribe(subID)

		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				payload, _ := json.Marshal(event)
				fmt.Fprintf(w, "event: game_event\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ctx.Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
