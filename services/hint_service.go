package services

import (
	"log"

	"password-heist-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// NoHintPlaceholder is returned when the requested tier has no content.
const NoHintPlaceholder = "No hint available for this clue."

// HintService enforces the hint-token economy and the per-round hint cap.
// Any tier costs exactly one token and one unit of the round cap; the tiers
// are independent content slots, not escalating prices.
type HintService struct {
	DB     *gorm.DB
	Rounds *RoundService
}

func NewHintService(db *gorm.DB, rounds *RoundService) *HintService {
	return &HintService{DB: db, Rounds: rounds}
}

// hintGate rejects a hint request before any token is spent: the team needs
// a token, the round cap must have room, and a stale client's clue position
// must match the team's current index. Returns (0, "") when the hint may be
// dispensed.
func hintGate(team models.Team, puzzle models.Puzzle, cluePosition *int) (int, string) {
	if team.HintTokens <= 0 {
		return 403, "no_tokens"
	}
	if team.HintsUsedRound >= puzzle.MaxHints {
		return 403, "round_cap_reached"
	}
	if cluePosition != nil && *cluePosition != team.CurrentCharacterIndex {
		return 409, "position_mismatch"
	}
	return 0, ""
}

// hintForLevel picks the requested tier's text, falling back to the
// placeholder when that tier is blank.
func hintForLevel(clue models.Clue, level int) string {
	var text string
	switch level {
	case 1:
		text = clue.HintText1
	case 2:
		text = clue.HintText2
	case 3:
		text = clue.HintText3
	}
	if text == "" {
		return NoHintPlaceholder
	}
	return text
}

// UseHint handles POST /use-hint {team_id, clue_position?, level}.
func (s *HintService) UseHint(c *fiber.Ctx) error {
	type Req struct {
		TeamID       string `json:"team_id"`
		CluePosition *int   `json:"clue_position,omitempty"`
		Level        int    `json:"level"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.TeamID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id"})
	}
	if req.Level < 1 || req.Level > 3 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_hint_level"})
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

	if status, code := hintGate(team, *puzzle, req.CluePosition); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": code})
	}

	var clue models.Clue
	if err := s.DB.Where("puzzle_id = ? AND character_position = ?", puzzle.ID, team.CurrentCharacterIndex).
		First(&clue).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	}

	// Guarded decrement: a doubled request can't spend the same token twice
	// or sneak past the round cap.
	res := s.DB.Model(&models.Team{}).
		Where("id = ? AND hint_tokens = ? AND hints_used_round = ?", team.ID, team.HintTokens, team.HintsUsedRound).
		Updates(map[string]interface{}{
			"hint_tokens":      team.HintTokens - 1,
			"hints_used_round": team.HintsUsedRound + 1,
		})
	if res.Error != nil {
		log.Printf("❌ [HINT] DB error for team %s: %v", team.ID, res.Error)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(409).JSON(fiber.Map{"error": "duplicate_submission"})
	}

	return c.JSON(fiber.Map{
		"success":               true,
		"hint_text":             hintForLevel(clue, req.Level),
		"tokens_remaining":      team.HintTokens - 1,
		"hints_used_this_round": team.HintsUsedRound + 1,
	})
}
