// workers/outbox_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"password-heist-system/models"
	"password-heist-system/services"

	"gorm.io/gorm"
)

// OutboxWorker relays committed lifecycle events from the game_events outbox
// to the in-process broadcaster. The state mutation commits first; relay is a
// separate, best-effort step, so delivery is at-least-once (a crash between
// publish and the published_at mark replays the event on restart).
type OutboxWorker struct {
	db          *gorm.DB
	broadcaster *services.Broadcaster
	interval    time.Duration
}

func NewOutboxWorker(db *gorm.DB, broadcaster *services.Broadcaster) *OutboxWorker {
	return &OutboxWorker{
		db:          db,
		broadcaster: broadcaster,
		interval:    1 * time.Second,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting game event outbox relay…")
	go w.run(ctx)
}

func (w *OutboxWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Outbox relay stopped.")
			return
		case <-ticker.C:
			if err := w.relayBatch(); err != nil {
				log.Printf("❌ Outbox relay error: %v", err)
			}
		}
	}
}

func (w *OutboxWorker) relayBatch() error {
	var events []models.GameEvent
	err := w.db.Where("published_at IS NULL").
		Order("created_at ASC").
		Limit(50).
		Find(&events).Error
	if err != nil {
		return err
	}

	for _, event := range events {
		w.broadcaster.Publish(event)

		now := time.Now().UTC()
		if err := w.db.Model(&models.GameEvent{}).Where("id = ?", event.ID).
			Update("published_at", now).Error; err != nil {
			// Leave the row unmarked; the next tick re-delivers. Subscribers
			// tolerate duplicates.
			log.Printf("⚠️  Failed to mark event %s published: %v", event.ID, err)
			continue
		}
		log.Printf("📣 Broadcast %s (puzzle %s) to %d subscriber(s)", event.Type, event.PuzzleID, w.broadcaster.SubscriberCount())
	}
	return nil
}
