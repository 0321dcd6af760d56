package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"password-heist-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errConcurrentSubmission signals a guarded update that found the progress row
// already moved on — a duplicate submission racing the first one.
var errConcurrentSubmission = errors.New("progress row changed concurrently")

// errRoundClosed signals a guess that passed the fast-path liveness check but
// found the round closed when re-read inside the transaction.
var errRoundClosed = errors.New("round no longer live")

// ProgressService is the per-(team, clue) state machine: tries, lockout,
// completion, and the elimination check on exhaustion.
type ProgressService struct {
	DB       *gorm.DB
	Rounds   *RoundService
	Powerups *PowerupService
}

func NewProgressService(db *gorm.DB, rounds *RoundService, powerups *PowerupService) *ProgressService {
	return &ProgressService{DB: db, Rounds: rounds, Powerups: powerups}
}

type guessOutcome int

const (
	outcomeAlreadySolved guessOutcome = iota
	outcomeLocked
	outcomeCorrect
	outcomeWrong
	outcomeExhausted
)

// guessEvaluation is the computed transition for one guess. Nothing is
// persisted here; the caller applies the writes under guarded updates.
type guessEvaluation struct {
	Outcome        guessOutcome
	TriesUsed      int        // tries_used after this guess
	TriesRemaining int        // never negative
	LockedUntil    *time.Time // set when locked now or still locked
	LockExpired    bool       // an old lock was cleared before evaluating
}

// NormalizeAnswer strips surrounding whitespace and upper-cases, making the
// comparison case- and whitespace-insensitive.
func NormalizeAnswer(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// guessGate is the pre-transition rejection for a guess: eliminated and
// finished teams are out, the round must be live, and a stale client's clue
// position must match the team's current index. Returns (0, "") when the
// guess may proceed.
func guessGate(team models.Team, puzzle models.Puzzle, cluePosition *int) (int, string) {
	if team.IsEliminated {
		return 409, "team_eliminated"
	}
	if team.FinalAnswerSubmitted || team.CompletedAt != nil {
		return 409, "round_already_finished"
	}
	if !puzzle.IsLive {
		return 409, "round_not_live"
	}
	if cluePosition != nil && *cluePosition != team.CurrentCharacterIndex {
		return 409, "position_mismatch"
	}
	return 0, ""
}

// exhaustionOutcome is what running out of tries does to the team: the
// anti-eliminate shield absorbs it, or the team is eliminated at now.
type exhaustionOutcome struct {
	ShieldConsumed bool
	Eliminated     bool
	EliminatedAt   *time.Time
}

func resolveExhaustion(shieldConsumed bool, now time.Time) exhaustionOutcome {
	if shieldConsumed {
		return exhaustionOutcome{ShieldConsumed: true}
	}
	return exhaustionOutcome{Eliminated: true, EliminatedAt: &now}
}

// evaluateGuess runs the pure state transition for one guess against one clue.
func evaluateGuess(progress models.TeamProgress, clue models.Clue, guess string, now time.Time) guessEvaluation {
	if progress.Completed {
		remaining := clue.MaxTries - progress.TriesUsed
		if remaining < 0 {
			remaining = 0
		}
		return guessEvaluation{Outcome: outcomeAlreadySolved, TriesUsed: progress.TriesUsed, TriesRemaining: remaining}
	}

	lockExpired := false
	if progress.LockedUntil != nil {
		if progress.LockedUntil.After(now) {
			return guessEvaluation{
				Outcome:        outcomeLocked,
				TriesUsed:      progress.TriesUsed,
				TriesRemaining: 0,
				LockedUntil:    progress.LockedUntil,
			}
		}
		// Lockout served in full — the slate is wiped, not just unlocked.
		progress.TriesUsed = 0
		progress.LockedUntil = nil
		lockExpired = true
	}

	if NormalizeAnswer(guess) == NormalizeAnswer(clue.ExpectedAnswer) {
		remaining := clue.MaxTries - progress.TriesUsed
		if remaining < 0 {
			remaining = 0
		}
		return guessEvaluation{
			Outcome:        outcomeCorrect,
			TriesUsed:      progress.TriesUsed,
			TriesRemaining: remaining,
			LockExpired:    lockExpired,
		}
	}

	newTries := progress.TriesUsed + 1
	remaining := clue.MaxTries - newTries
	if remaining > 0 {
		return guessEvaluation{
			Outcome:        outcomeWrong,
			TriesUsed:      newTries,
			TriesRemaining: remaining,
			LockExpired:    lockExpired,
		}
	}

	lockUntil := now.Add(time.Duration(clue.LockoutDurationSeconds) * time.Second)
	return guessEvaluation{
		Outcome:        outcomeExhausted,
		TriesUsed:      newTries,
		TriesRemaining: 0,
		LockedUntil:    &lockUntil,
		LockExpired:    lockExpired,
	}
}

// GuessResponse is the structured result of one guess submission. Wrong
// guesses, lockouts and eliminations are normal gameplay, not errors.
type GuessResponse struct {
	Correct               bool       `json:"correct"`
	TriesRemaining        int        `json:"tries_remaining"`
	LockedUntil           *time.Time `json:"locked_until,omitempty"`
	Eliminated            bool       `json:"eliminated"`
	AntiEliminateConsumed bool       `json:"anti_eliminate_consumed"`
	RoundCompleted        bool       `json:"round_completed"`
	NextCharacterIndex    *int       `json:"next_character_index,omitempty"`
	AlreadyCompleted      bool       `json:"already_completed,omitempty"`
}

// VerifyGuess evaluates one guess from a team against its current clue.
//
// POST /verify-guess {team_id, guess, clue_position?}
func (s *ProgressService) VerifyGuess(c *fiber.Ctx) error {
	type Req struct {
		TeamID       string `json:"team_id"`
		Guess        string `json:"guess"`
		CluePosition *int   `json:"clue_position,omitempty"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.TeamID == "" || strings.TrimSpace(req.Guess) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id_or_guess"})
	}

	var team models.Team
	if err := s.DB.First(&team, "id = ?", req.TeamID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(404).JSON(fiber.Map{"error": "team_not_found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	puzzle, err := s.Rounds.ActivePuzzle()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "no_active_puzzle"})
	}
	if status, code := guessGate(team, *puzzle, req.CluePosition); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": code})
	}

	var clue models.Clue
	if err := s.DB.Where("puzzle_id = ? AND character_position = ?", puzzle.ID, team.CurrentCharacterIndex).
		First(&clue).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "clue_not_found"})
	}

	now := time.Now().UTC()
	var resp GuessResponse

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// End-game can flip is_live between the fast-path check and this
		// transaction. Re-read it here so the late guess loses the race
		// instead of landing on a round whose leaderboard is already written.
		var fresh models.Puzzle
		if err := tx.Select("is_live").First(&fresh, "id = ?", puzzle.ID).Error; err != nil {
			return err
		}
		if !fresh.IsLive {
			return errRoundClosed
		}

		// Upsert-with-default so two concurrent first guesses can't both insert.
		seed := models.TeamProgress{ID: uuid.NewString(), TeamID: team.ID, ClueID: clue.ID, TriesUsed: 0}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}, {Name: "clue_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var progress models.TeamProgress
		if err := tx.Where("team_id = ? AND clue_id = ?", team.ID, clue.ID).First(&progress).Error; err != nil {
			return err
		}

		eval := evaluateGuess(progress, clue, req.Guess, now)

		switch eval.Outcome {
		case outcomeAlreadySolved:
			resp = GuessResponse{Correct: true, AlreadyCompleted: true, TriesRemaining: eval.TriesRemaining}
			return nil

		case outcomeLocked:
			resp = GuessResponse{TriesRemaining: 0, LockedUntil: eval.LockedUntil}
			return nil

		case outcomeCorrect:
			// Guarded flip; a duplicate submission loses the race and sees
			// the row already completed.
			res := tx.Model(&models.TeamProgress{}).
				Where("id = ? AND completed = ?", progress.ID, false).
				Updates(map[string]interface{}{"completed": true, "tries_used": eval.TriesUsed, "locked_until": nil})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				resp = GuessResponse{Correct: true, AlreadyCompleted: true, TriesRemaining: eval.TriesRemaining}
				return nil
			}

			nextIndex := team.CurrentCharacterIndex + 1
			roundDone := nextIndex >= len(puzzle.MasterPassword)

			teamUpdates := map[string]interface{}{"current_character_index": nextIndex}
			if roundDone {
				teamUpdates["completed_at"] = now
				teamUpdates["final_answer_submitted"] = true
			}
			if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).Updates(teamUpdates).Error; err != nil {
				return err
			}

			resp = GuessResponse{
				Correct:            true,
				TriesRemaining:     eval.TriesRemaining,
				RoundCompleted:     roundDone,
				NextCharacterIndex: &nextIndex,
			}
			return nil

		case outcomeWrong, outcomeExhausted:
			updates := map[string]interface{}{"tries_used": eval.TriesUsed}
			if eval.Outcome == outcomeExhausted {
				updates["locked_until"] = *eval.LockedUntil
			} else if eval.LockExpired {
				updates["locked_until"] = nil
			}

			// CAS on tries_used: at most one transition out of a given try
			// state per logical request (double-click resubmission guard).
			// The row still holds the pre-reset count when a lock just expired.
			res := tx.Model(&models.TeamProgress{}).
				Where("id = ? AND tries_used = ? AND completed = ?", progress.ID, progress.TriesUsed, false).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errConcurrentSubmission
			}

			resp = GuessResponse{
				TriesRemaining: eval.TriesRemaining,
				LockedUntil:    eval.LockedUntil,
			}

			if eval.Outcome != outcomeExhausted {
				return nil
			}

			// Exhaustion is fatal unless an anti-eliminate shield rescues it.
			consumed, err := s.Powerups.ConsumeAntiEliminate(tx, team.ID, puzzle.ID, now)
			if err != nil {
				return err
			}
			outcome := resolveExhaustion(consumed, now)
			if outcome.ShieldConsumed {
				resp.AntiEliminateConsumed = true
				log.Printf("🛡️  Team %s survived elimination on clue %d (shield consumed)", team.ID, clue.CharacterPosition)
				return nil
			}

			if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).
				Updates(map[string]interface{}{"is_eliminated": true, "eliminated_at": *outcome.EliminatedAt}).Error; err != nil {
				return err
			}
			resp.Eliminated = true
			return nil
		}
		return nil
	})

	if err == errConcurrentSubmission {
		return c.Status(409).JSON(fiber.Map{"error": "duplicate_submission"})
	}
	if err == errRoundClosed {
		return c.Status(409).JSON(fiber.Map{"error": "round_not_live"})
	}
	if err != nil {
		log.Printf("❌ [GUESS] DB error for team %s: %v", req.TeamID, err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(resp)
}

// GetTeamState returns the team plus its progress on the current clue, for
// clients reconciling after a reconnect.
func (s *ProgressService) GetTeamState(c *fiber.Ctx) error {
	teamID := c.Params("id")
	if teamID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id"})
	}

	var team models.Team
	if err := s.DB.First(&team, "id = ?", teamID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(404).JSON(fiber.Map{"error": "team_not_found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	puzzle, err := s.Rounds.ActivePuzzle()
	if err != nil {
		return c.JSON(fiber.Map{"team": team, "puzzle": nil})
	}

	var clue models.Clue
	var progress *models.TeamProgress
	if err := s.DB.Where("puzzle_id = ? AND character_position = ?", puzzle.ID, team.CurrentCharacterIndex).
		First(&clue).Error; err == nil {
		var p models.TeamProgress
		if err := s.DB.Where("team_id = ? AND clue_id = ?", team.ID, clue.ID).First(&p).Error; err == nil {
			progress = &p
		}
	}

	// Never leak the expected answer to players.
	clue.ExpectedAnswer = ""

	return c.JSON(fiber.Map{
		"team":            team,
		"puzzle_id":       puzzle.ID,
		"round_name":      puzzle.RoundName,
		"is_live":         puzzle.IsLive,
		"password_length": len(puzzle.MasterPassword),
		"clue":            clue,
		"progress":        progress,
	})
}
