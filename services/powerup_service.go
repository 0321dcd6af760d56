package services

import (
	"log"
	"time"

	"password-heist-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PowerupService resolves powerup selection and effects against the Progress
// Engine, the hint economy and team state.
type PowerupService struct {
	DB     *gorm.DB
	Rounds *RoundService
}

func NewPowerupService(db *gorm.DB, rounds *RoundService) *PowerupService {
	return &PowerupService{DB: db, Rounds: rounds}
}

// ListPowerups handles GET /powerups: the active catalog plus the current
// round's selection cap.
func (s *PowerupService) ListPowerups(c *fiber.Ctx) error {
	maxPowerups := 3
	if puzzle, err := s.Rounds.ActivePuzzle(); err == nil {
		maxPowerups = puzzle.MaxPowerups
	}

	var powerups []models.Powerup
	if err := s.DB.Where("is_active = ?", true).Order("name ASC").Find(&powerups).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{"powerups": powerups, "max_powerups": maxPowerups})
}

// SelectPowerups handles POST /powerups {team_id, powerup_ids}. One shot per
// round: re-selection while assignments exist is rejected, and effect tags
// outside the closed set are rejected here, not ignored later.
func (s *PowerupService) SelectPowerups(c *fiber.Ctx) error {
	type Req struct {
		TeamID     string   `json:"team_id"`
		PowerupIDs []string `json:"powerup_ids"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.TeamID == "" || len(req.PowerupIDs) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id_or_powerup_ids"})
	}

	var team models.Team
	if err := s.DB.First(&team, "id = ?", req.TeamID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "team_not_found"})
	}

	puzzle, err := s.Rounds.ActivePuzzle()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "no_active_puzzle"})
	}

	if len(req.PowerupIDs) > puzzle.MaxPowerups {
		return c.Status(400).JSON(fiber.Map{"error": "limit_exceeded", "max_powerups": puzzle.MaxPowerups})
	}

	var existing int64
	if err := s.DB.Model(&models.TeamPowerup{}).
		Where("team_id = ? AND puzzle_id = ?", team.ID, puzzle.ID).
		Count(&existing).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if existing > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "already_selected"})
	}

	var powerups []models.Powerup
	if err := s.DB.Where("id IN ? AND is_active = ?", req.PowerupIDs, true).Find(&powerups).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if len(powerups) != len(req.PowerupIDs) {
		return c.Status(404).JSON(fiber.Map{"error": "powerup_not_found"})
	}
	for _, p := range powerups {
		if !models.KnownEffectType(p.EffectType) {
			return c.Status(400).JSON(fiber.Map{"error": "unknown_effect_type", "effect_type": p.EffectType})
		}
	}

	rows := make([]models.TeamPowerup, 0, len(req.PowerupIDs))
	for _, pid := range req.PowerupIDs {
		rows = append(rows, models.TeamPowerup{
			ID:        uuid.NewString(),
			TeamID:    team.ID,
			PowerupID: pid,
			PuzzleID:  puzzle.ID,
		})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Update("selected_powerups", req.PowerupIDs).Error
	})
	if err != nil {
		log.Printf("❌ [POWERUPS] Selection failed for team %s: %v", team.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{"success": true, "accepted_count": len(rows)})
}

// UsePowerup handles POST /powerups/use {team_id, powerup_id}. The
// anti-eliminate shield is not manually usable — the Progress Engine consumes
// it on the exhaustion path.
func (s *PowerupService) UsePowerup(c *fiber.Ctx) error {
	type Req struct {
		TeamID    string `json:"team_id"`
		PowerupID string `json:"powerup_id"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.TeamID == "" || req.PowerupID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id_or_powerup_id"})
	}

	puzzle, err := s.Rounds.ActivePuzzle()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "no_active_puzzle"})
	}

	var assignment models.TeamPowerup
	if err := s.DB.Preload("Powerup").
		Where("team_id = ? AND powerup_id = ? AND puzzle_id = ?", req.TeamID, req.PowerupID, puzzle.ID).
		First(&assignment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(404).JSON(fiber.Map{"error": "not_found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if assignment.IsUsed {
		return c.Status(409).JSON(fiber.Map{"error": "already_used"})
	}
	if assignment.Powerup.EffectType == models.EffectSurviveElimination {
		return c.Status(409).JSON(fiber.Map{"error": "auto_consumed_only",
			"message": "Anti-Eliminate is consumed automatically when tries run out"})
	}

	now := time.Now().UTC()
	var message string

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// One-way flag; a doubled request loses the guarded update.
		res := tx.Model(&models.TeamPowerup{}).
			Where("id = ? AND is_used = ?", assignment.ID, false).
			Updates(map[string]interface{}{"is_used": true, "used_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentSubmission
		}

		switch assignment.Powerup.EffectType {
		case models.EffectExtraTry:
			var progress models.TeamProgress
			if err := tx.Where("team_id = ? AND completed = ?", req.TeamID, false).
				Limit(1).Find(&progress).Error; err != nil {
				return err
			}
			if progress.ID != "" && progress.TriesUsed > 0 {
				if err := tx.Model(&models.TeamProgress{}).Where("id = ?", progress.ID).
					Update("tries_used", progress.TriesUsed-1).Error; err != nil {
					return err
				}
			}
			message = "+1 extra try added"

		case models.EffectFreeHint:
			if err := tx.Model(&models.Team{}).Where("id = ?", req.TeamID).
				Update("hint_tokens", gorm.Expr("hint_tokens + 1")).Error; err != nil {
				return err
			}
			message = "+1 free hint token"
		}
		return nil
	})
	if err == errConcurrentSubmission {
		return c.Status(409).JSON(fiber.Map{"error": "already_used"})
	}
	if err != nil {
		log.Printf("❌ [POWERUPS] Use failed for team %s: %v", req.TeamID, err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{"success": true, "powerup_name": assignment.Powerup.Name, "message": message})
}

// ConsumeAntiEliminate burns one unused anti-eliminate assignment for the
// team on the given puzzle, if any. Called by the Progress Engine inside its
// transaction when tries run out. Puzzle-scoped and effect-type-checked.
func (s *PowerupService) ConsumeAntiEliminate(tx *gorm.DB, teamID, puzzleID string, now time.Time) (bool, error) {
	var assignment models.TeamPowerup
	err := tx.Joins("JOIN powerups ON powerups.id = team_powerups.powerup_id").
		Where("team_powerups.team_id = ? AND team_powerups.puzzle_id = ? AND team_powerups.is_used = ? AND powerups.effect_type = ?",
			teamID, puzzleID, false, models.EffectSurviveElimination).
		First(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}

	res := tx.Model(&models.TeamPowerup{}).
		Where("id = ? AND is_used = ?", assignment.ID, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	// A concurrent exhaustion already spent the shield.
	return res.RowsAffected > 0, nil
}
