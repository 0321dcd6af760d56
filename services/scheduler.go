// services/scheduler.go
package services

import (
	"log"
	"time"

	"password-heist-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartRoundScheduler starts the background job that flips scheduled rounds
// live. Every 30s: any puzzle whose scheduled_start_at has passed and is not
// yet live gets a normal start-round (team resets, GAME_START and all).
func (s *RoundService) StartRoundScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(func() {
			now := time.Now().UTC()

			var puzzles []models.Puzzle
			err := s.DB.Where("scheduled_start_at IS NOT NULL AND scheduled_start_at <= ? AND is_live = ?", now, false).
				Find(&puzzles).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, p := range puzzles {
				if err := s.startRound(p.ID, now); err != nil {
					log.Printf("[Scheduler] Failed to start round %s: %v", p.ID, err)
				} else {
					log.Printf("✅ Auto-started scheduled round: %s", p.RoundName)
				}
			}
		}),
	)
}
