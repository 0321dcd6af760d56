package services

import (
	"log"
	"strings"

	"password-heist-system/models"
	"password-heist-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamService owns join-code lifecycle and the narrow operator mutations of
// team state that sit outside round lifecycle.
type TeamService struct {
	DB *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{DB: db}
}

// Join handles POST /join {code, team_name}. A join code is claimed exactly
// once: UNUSED flips to ACTIVE, and a second device gets a conflict.
func (s *TeamService) Join(c *fiber.Ctx) error {
	type Req struct {
		Code     string `json:"code"`
		TeamName string `json:"team_name"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != utils.JoinCodeLength {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_code_format"})
	}

	var team models.Team
	if err := s.DB.Where("join_code = ?", code).First(&team).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(404).JSON(fiber.Map{"error": "invalid_code"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	teamName := strings.TrimSpace(req.TeamName)
	if teamName == "" {
		teamName = "Team " + code
	}

	// Claim is a guarded update so two devices racing the same code can't
	// both win.
	res := s.DB.Model(&models.Team{}).
		Where("id = ? AND status = ?", team.ID, models.TeamStatusUnused).
		Updates(map[string]interface{}{"status": models.TeamStatusActive, "team_name": teamName})
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(409).JSON(fiber.Map{"error": "code_already_in_use"})
	}

	log.Printf("🎟️  Team joined: %s (%s)", teamName, code)
	return c.JSON(fiber.Map{"team_id": team.ID})
}

// GenerateCodes handles POST /admin/codes/generate {count}: bulk-creates
// UNUSED teams with unique join codes. Count is clamped to 1..500.
func (s *TeamService) GenerateCodes(c *fiber.Ctx) error {
	type Req struct {
		Count int `json:"count"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}

	count := req.Count
	if count < 1 {
		count = 1
	}
	if count > 500 {
		count = 500
	}

	codes := utils.GenerateBulkCodes(count)
	teams := make([]models.Team, 0, count)
	for _, code := range codes {
		teams = append(teams, models.Team{
			ID:          uuid.NewString(),
			JoinCode:    code,
			Status:      models.TeamStatusUnused,
			HintTokens:  models.DefaultHintTokens,
			IsQualified: true,
		})
	}

	if err := s.DB.Create(&teams).Error; err != nil {
		log.Printf("❌ [CODES] Bulk insert failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.Status(201).JSON(fiber.Map{"codes": teams, "count": len(teams)})
}

// DeleteCodes handles POST /admin/codes/delete {unused_only}. With
// unused_only it prunes unclaimed codes; without it, everything goes —
// assignments, progress, standings, teams.
func (s *TeamService) DeleteCodes(c *fiber.Ctx) error {
	type Req struct {
		UnusedOnly bool `json:"unused_only"`
	}

	var req Req
	_ = c.BodyParser(&req)

	if req.UnusedOnly {
		if err := s.DB.Where("status = ?", models.TeamStatusUnused).Delete(&models.Team{}).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "db_error"})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Unused codes deleted"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IS NOT NULL").Delete(&models.TeamPowerup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IS NOT NULL").Delete(&models.TeamProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IS NOT NULL").Delete(&models.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("id IS NOT NULL").Delete(&models.Team{}).Error
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "All codes and team data deleted"})
}

// ListTeams handles GET /admin/teams for the operator console.
func (s *TeamService) ListTeams(c *fiber.Ctx) error {
	var teams []models.Team
	query := s.DB.Order("created_at ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", strings.ToUpper(status))
	}
	if err := query.Find(&teams).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	return c.JSON(fiber.Map{"teams": teams, "count": len(teams)})
}

// KickRegenerate handles POST /admin/teams/kick-regenerate {team_id}: drops a
// compromised team and mints a fresh UNUSED code in its place.
func (s *TeamService) KickRegenerate(c *fiber.Ctx) error {
	type Req struct {
		TeamID string `json:"team_id"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil || req.TeamID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id"})
	}

	newTeam := models.Team{
		ID:          uuid.NewString(),
		JoinCode:    utils.GenerateJoinCode(),
		Status:      models.TeamStatusUnused,
		HintTokens:  models.DefaultHintTokens,
		IsQualified: true,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", req.TeamID).Delete(&models.TeamProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", req.TeamID).Delete(&models.TeamPowerup{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Team{}, "id = ?", req.TeamID).Error; err != nil {
			return err
		}
		return tx.Create(&newTeam).Error
	})
	if err != nil {
		log.Printf("❌ [KICK] Failed for team %s: %v", req.TeamID, err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{"new_code": newTeam.JoinCode, "team": newTeam})
}

// ResetSession handles POST /admin/teams/reset-session {team_id}: releases a
// claimed code back to UNUSED so the team can rejoin on another device.
func (s *TeamService) ResetSession(c *fiber.Ctx) error {
	type Req struct {
		TeamID string `json:"team_id"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil || req.TeamID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id"})
	}

	res := s.DB.Model(&models.Team{}).Where("id = ?", req.TeamID).
		Update("status", models.TeamStatusUnused)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "team_not_found"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Bypass handles POST /admin/teams/bypass {team_id}: the operator skips the
// team past its current character (stuck clue escape hatch).
func (s *TeamService) Bypass(c *fiber.Ctx) error {
	type Req struct {
		TeamID string `json:"team_id"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil || req.TeamID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_team_id"})
	}

	var team models.Team
	if err := s.DB.First(&team, "id = ?", req.TeamID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(404).JSON(fiber.Map{"error": "team_not_found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	newIndex := team.CurrentCharacterIndex + 1
	if err := s.DB.Model(&models.Team{}).Where("id = ?", team.ID).
		Update("current_character_index", newIndex).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	log.Printf("⏭️  Operator bypass: team %s → index %d", team.ID, newIndex)
	return c.JSON(fiber.Map{"success": true, "new_index": newIndex})
}

// GrantHints handles POST /admin/grant-hints {amount}: adds tokens (clamped
// 1..10) to every ACTIVE team.
func (s *TeamService) GrantHints(c *fiber.Ctx) error {
	type Req struct {
		Amount int `json:"amount"`
	}

	var req Req
	_ = c.BodyParser(&req)

	tokensToAdd := req.Amount
	if tokensToAdd < 1 {
		tokensToAdd = 1
	}
	if tokensToAdd > 10 {
		tokensToAdd = 10
	}

	res := s.DB.Model(&models.Team{}).Where("status = ?", models.TeamStatusActive).
		Update("hint_tokens", gorm.Expr("hint_tokens + ?", tokensToAdd))
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "no_active_teams"})
	}

	return c.JSON(fiber.Map{"success": true, "teams_updated": res.RowsAffected, "tokens_added": tokensToAdd})
}
