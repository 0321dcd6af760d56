package services

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"password-heist-system/models"
	"password-heist-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoActivePuzzle is returned when no round is currently selected.
var ErrNoActivePuzzle = errors.New("no active puzzle")

// RoundService orchestrates round lifecycle across all teams. It owns puzzle
// activity transitions and keeps an explicit current-round pointer so readers
// never observe the deactivate-all/activate-one window with zero active rounds.
type RoundService struct {
	DB *gorm.DB

	mu              sync.RWMutex
	currentPuzzleID string
}

func NewRoundService(db *gorm.DB) *RoundService {
	s := &RoundService{DB: db}
	s.loadActivePointer()
	return s
}

// loadActivePointer recovers the current-round pointer from storage at boot.
func (s *RoundService) loadActivePointer() {
	var puzzle models.Puzzle
	if err := s.DB.Where("is_active = ?", true).First(&puzzle).Error; err == nil {
		s.mu.Lock()
		s.currentPuzzleID = puzzle.ID
		s.mu.Unlock()
		log.Printf("🎯 Current round pointer restored: %s (%s)", puzzle.ID, puzzle.RoundName)
	}
}

// ActivePuzzle returns the currently selected round.
func (s *RoundService) ActivePuzzle() (*models.Puzzle, error) {
	s.mu.RLock()
	id := s.currentPuzzleID
	s.mu.RUnlock()

	if id == "" {
		return nil, ErrNoActivePuzzle
	}

	var puzzle models.Puzzle
	if err := s.DB.First(&puzzle, "id = ?", id).Error; err != nil {
		return nil, ErrNoActivePuzzle
	}
	return &puzzle, nil
}

func (s *RoundService) setActivePointer(id string) {
	s.mu.Lock()
	s.currentPuzzleID = id
	s.mu.Unlock()
}

// enqueueEvent writes an outbox row inside the mutating transaction. The
// outbox worker relays it after commit; relay failure never affects the
// mutation itself.
func enqueueEvent(tx *gorm.DB, eventType, puzzleID, roundSlug string) error {
	return tx.Create(&models.GameEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		PuzzleID:  puzzleID,
		RoundSlug: roundSlug,
	}).Error
}

// startRound activates the target puzzle, resets every ACTIVE-and-qualified
// team for a fresh round and enqueues GAME_START.
func (s *RoundService) startRound(puzzleID string, now time.Time) error {
	var target models.Puzzle
	if err := s.DB.First(&target, "id = ?", puzzleID).Error; err != nil {
		return err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Puzzle{}).
			Where("is_active = ? OR is_live = ?", true, true).
			Updates(map[string]interface{}{"is_active": false, "is_live": false}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Puzzle{}).Where("id = ?", puzzleID).
			Updates(map[string]interface{}{"is_active": true, "is_live": true, "scheduled_start_at": nil}).Error; err != nil {
			return err
		}

		// Fresh round: no carry-over of tries, lockouts or last round's state.
		var teamIDs []string
		if err := tx.Model(&models.Team{}).
			Where("status = ? AND is_qualified = ?", models.TeamStatusActive, true).
			Pluck("id", &teamIDs).Error; err != nil {
			return err
		}

		if len(teamIDs) > 0 {
			if err := tx.Model(&models.Team{}).Where("id IN ?", teamIDs).
				Updates(map[string]interface{}{
					"current_puzzle_id":       puzzleID,
					"current_character_index": 0,
					"completed_at":            nil,
					"final_answer_submitted":  false,
					"is_eliminated":           false,
					"eliminated_at":           nil,
					"hints_used_round":        0,
					"round_start_time":        now,
				}).Error; err != nil {
				return err
			}
			if err := tx.Where("team_id IN ?", teamIDs).Delete(&models.TeamProgress{}).Error; err != nil {
				return err
			}
		}

		return enqueueEvent(tx, models.EventGameStart, target.ID, target.RoundSlug)
	})
	if err != nil {
		return err
	}

	s.setActivePointer(puzzleID)
	log.Printf("🚀 Round started: %s (round %d)", target.RoundName, target.RoundNumber)
	return nil
}

// StartRound handles POST /admin/start-round {puzzle_id}.
func (s *RoundService) StartRound(c *fiber.Ctx) error {
	type Req struct {
		PuzzleID string `json:"puzzle_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.PuzzleID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_puzzle_id"})
	}

	if err := s.startRound(req.PuzzleID, time.Now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "puzzle_not_found"})
		}
		log.Printf("❌ [START_ROUND] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// partitionTeams splits the ACTIVE team ids into qualifiers and eliminated,
// preserving input order. Every ACTIVE team lands in exactly one bucket.
func partitionTeams(activeIDs, qualifiedIDs []string) (qualified, eliminated []string) {
	wanted := make(map[string]struct{}, len(qualifiedIDs))
	for _, id := range qualifiedIDs {
		wanted[id] = struct{}{}
	}
	for _, id := range activeIDs {
		if _, ok := wanted[id]; ok {
			qualified = append(qualified, id)
		} else {
			eliminated = append(eliminated, id)
		}
	}
	return qualified, eliminated
}

// AdvanceRound handles POST /admin/advance-round {team_ids | top_n, puzzle_id}.
// It partitions the field into qualifiers and non-qualifiers; the operator is
// expected to call start-round for the next puzzle afterwards.
func (s *RoundService) AdvanceRound(c *fiber.Ctx) error {
	type Req struct {
		TeamIDs  []string `json:"team_ids,omitempty"`
		TopN     int      `json:"top_n,omitempty"`
		PuzzleID string   `json:"puzzle_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.PuzzleID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_next_puzzle_id"})
	}

	var qualifiedIDs []string
	switch {
	case len(req.TeamIDs) > 0:
		qualifiedIDs = req.TeamIDs
	case req.TopN > 0:
		if err := s.DB.Model(&models.LeaderboardEntry{}).
			Order("rank ASC").Limit(req.TopN).
			Pluck("team_id", &qualifiedIDs).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "db_error"})
		}
	default:
		return c.Status(400).JSON(fiber.Map{"error": "provide_team_ids_or_top_n"})
	}

	if len(qualifiedIDs) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no_teams_to_advance"})
	}

	var activeIDs []string
	if err := s.DB.Model(&models.Team{}).Where("status = ?", models.TeamStatusActive).
		Pluck("id", &activeIDs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	qualified, eliminated := partitionTeams(activeIDs, qualifiedIDs)
	if len(qualified) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no_teams_to_advance"})
	}

	now := time.Now().UTC()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if len(eliminated) > 0 {
			if err := tx.Model(&models.Team{}).Where("id IN ?", eliminated).
				Updates(map[string]interface{}{
					"is_qualified":  false,
					"is_eliminated": true,
					"eliminated_at": now,
				}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Team{}).Where("id IN ?", qualified).
			Updates(map[string]interface{}{
				"is_qualified":  true,
				"is_eliminated": false,
				"eliminated_at": nil,
			}).Error; err != nil {
			return err
		}
		return enqueueEvent(tx, models.EventRoundAdvance, req.PuzzleID, "")
	})
	if err != nil {
		log.Printf("❌ [ADVANCE_ROUND] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"qualified":  len(qualified),
		"eliminated": len(eliminated),
	})
}

// buildLeaderboard computes the end-of-round standings: elapsed time, score
// and dense 1-based ranks, one entry per team.
func buildLeaderboard(teams []models.Team, puzzleID string, now time.Time) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(teams))
	for _, team := range teams {
		completed := team.CompletedAt != nil
		elapsed := models.DidNotFinishSeconds
		if team.RoundStartTime != nil {
			end := now
			if completed {
				end = *team.CompletedAt
			}
			elapsed = int(end.Sub(*team.RoundStartTime).Seconds())
		}

		score := 0.0
		if completed {
			score = utils.CalculateScore(elapsed, team.HintsUsedRound)
		}

		entries = append(entries, models.LeaderboardEntry{
			ID:          uuid.NewString(),
			TeamID:      team.ID,
			PuzzleID:    puzzleID,
			TimeSeconds: elapsed,
			HintsUsed:   team.HintsUsedRound,
			Score:       score,
			Completed:   completed,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	rank := 0
	prevScore := -1.0
	for i := range entries {
		if i == 0 || entries[i].Score != prevScore {
			rank++
			prevScore = entries[i].Score
		}
		entries[i].Rank = rank
	}
	return entries
}

// EndGame handles POST /admin/end-game. The puzzle stops accepting guesses
// (is_live off, is_active kept for reference), the leaderboard is computed and
// upserted, and GAME_END goes out.
func (s *RoundService) EndGame(c *fiber.Ctx) error {
	puzzle, err := s.ActivePuzzle()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "no_active_puzzle"})
	}

	now := time.Now().UTC()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Puzzle{}).Where("id = ?", puzzle.ID).
			Update("is_live", false).Error; err != nil {
			return err
		}

		var teams []models.Team
		if err := tx.Where("status = ?", models.TeamStatusActive).Find(&teams).Error; err != nil {
			return err
		}

		if len(teams) > 0 {
			entries := buildLeaderboard(teams, puzzle.ID, now)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "team_id"}, {Name: "puzzle_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"time_seconds", "hints_used", "score", "rank", "completed", "updated_at"}),
			}).Create(&entries).Error; err != nil {
				return err
			}
		}

		return enqueueEvent(tx, models.EventGameEnd, puzzle.ID, puzzle.RoundSlug)
	})
	if err != nil {
		log.Printf("❌ [END_GAME] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	log.Printf("🏁 Round ended: %s — leaderboard written", puzzle.RoundName)
	return c.JSON(fiber.Map{"success": true, "message": "Game ended. Leaderboard calculated."})
}

// ResetGame handles POST /admin/reset-game. Operator safety valve: wipes all
// progress, powerup assignments and standings, and returns every ACTIVE team
// to its initial state. Destructive and irreversible.
func (s *RoundService) ResetGame(c *fiber.Ctx) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IS NOT NULL").Delete(&models.TeamProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IS NOT NULL").Delete(&models.TeamPowerup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IS NOT NULL").Delete(&models.LeaderboardEntry{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Team{}).Where("status = ?", models.TeamStatusActive).
			Updates(map[string]interface{}{
				"current_puzzle_id":       nil,
				"current_character_index": 0,
				"completed_at":            nil,
				"final_answer_submitted":  false,
				"is_eliminated":           false,
				"eliminated_at":           nil,
				"is_qualified":            true,
				"round_start_time":        nil,
				"hints_used_round":        0,
				"hint_tokens":             models.DefaultHintTokens,
				"selected_powerups":       "[]",
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Puzzle{}).Where("id IS NOT NULL").
			Updates(map[string]interface{}{"is_active": false, "is_live": false}).Error
	})
	if err != nil {
		log.Printf("❌ [RESET_GAME] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	s.setActivePointer("")
	log.Println("🧹 Game reset — all progress cleared")
	return c.JSON(fiber.Map{"success": true, "message": "Game reset. All progress cleared."})
}

// GrantExtraLife handles POST /admin/grant-extra-life: revives every
// eliminated ACTIVE team, clears their locks and tries, broadcasts EXTRA_LIFE.
func (s *RoundService) GrantExtraLife(c *fiber.Ctx) error {
	var revivedIDs []string
	if err := s.DB.Model(&models.Team{}).
		Where("status = ? AND is_eliminated = ?", models.TeamStatusActive, true).
		Pluck("id", &revivedIDs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	if len(revivedIDs) == 0 {
		return c.JSON(fiber.Map{"success": true, "message": "No eliminated teams to revive", "revived": 0})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Team{}).Where("id IN ?", revivedIDs).
			Updates(map[string]interface{}{"is_eliminated": false, "eliminated_at": nil}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TeamProgress{}).Where("team_id IN ?", revivedIDs).
			Updates(map[string]interface{}{"tries_used": 0, "locked_until": nil}).Error; err != nil {
			return err
		}
		return enqueueEvent(tx, models.EventExtraLife, "", "")
	})
	if err != nil {
		log.Printf("❌ [EXTRA_LIFE] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	log.Printf("💚 Extra life granted — revived %d team(s)", len(revivedIDs))
	return c.JSON(fiber.Map{"success": true, "revived": len(revivedIDs)})
}

// GetLeaderboard handles GET /leaderboard for the active (or most recent
// active) puzzle, ordered by rank.
func (s *RoundService) GetLeaderboard(c *fiber.Ctx) error {
	puzzle, err := s.ActivePuzzle()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "no_active_puzzle"})
	}

	var entries []models.LeaderboardEntry
	if err := s.DB.Preload("Team").
		Where("puzzle_id = ?", puzzle.ID).
		Order("rank ASC").
		Find(&entries).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{
		"puzzle_id":  puzzle.ID,
		"round_name": puzzle.RoundName,
		"is_live":    puzzle.IsLive,
		"entries":    entries,
	})
}
