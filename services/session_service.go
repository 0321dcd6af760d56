package services

import (
	"password-heist-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService tracks multi-round tournament sessions for the operator
// console.
type SessionService struct {
	DB *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db}
}

// CreateSession handles POST /admin/sessions {name, total_rounds}.
func (s *SessionService) CreateSession(c *fiber.Ctx) error {
	type Req struct {
		Name        string `json:"name"`
		TotalRounds int    `json:"total_rounds"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_session_name"})
	}

	totalRounds := req.TotalRounds
	if totalRounds < 1 {
		totalRounds = 1
	}

	session := models.GameSession{
		ID:          uuid.NewString(),
		Name:        req.Name,
		TotalRounds: totalRounds,
		Status:      models.SessionStatusSetup,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.Status(201).JSON(fiber.Map{"session": session})
}

// ListSessions handles GET /admin/sessions, newest first.
func (s *SessionService) ListSessions(c *fiber.Ctx) error {
	var sessions []models.GameSession
	if err := s.DB.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// UpdateSession handles PATCH /admin/sessions {session_id, status, current_round}.
func (s *SessionService) UpdateSession(c *fiber.Ctx) error {
	type Req struct {
		SessionID    string `json:"session_id"`
		Status       string `json:"status,omitempty"`
		CurrentRound *int   `json:"current_round,omitempty"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.SessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_session_id"})
	}

	updates := map[string]interface{}{}
	if req.Status != "" {
		switch req.Status {
		case models.SessionStatusSetup, models.SessionStatusLive, models.SessionStatusDone:
			updates["status"] = req.Status
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid_status"})
		}
	}
	if req.CurrentRound != nil {
		updates["current_round"] = *req.CurrentRound
	}
	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "nothing_to_update"})
	}

	res := s.DB.Model(&models.GameSession{}).Where("id = ?", req.SessionID).Updates(updates)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "session_not_found"})
	}

	return c.JSON(fiber.Map{"success": true})
}
