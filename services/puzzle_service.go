package services

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"password-heist-system/models"
	"password-heist-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// PuzzleService manages the puzzle/clue catalog consumed read-only by the
// rest of the game.
type PuzzleService struct {
	DB     *gorm.DB
	Rounds *RoundService
}

func NewPuzzleService(db *gorm.DB, rounds *RoundService) *PuzzleService {
	return &PuzzleService{DB: db, Rounds: rounds}
}

// ClueInput is one clue row in a puzzle creation request.
type ClueInput struct {
	CharacterPosition      int    `json:"character_position"`
	ClueText               string `json:"clue_text"`
	HintText1              string `json:"hint_text_1"`
	HintText2              string `json:"hint_text_2"`
	HintText3              string `json:"hint_text_3"`
	ExpectedAnswer         string `json:"expected_answer"`
	MaxTries               int    `json:"max_tries"`
	LockoutDurationSeconds int    `json:"lockout_duration_seconds"`
}

// CreatePuzzle handles POST /admin/puzzles. Accepts multipart form data:
// a "puzzle" JSON part plus optional "clue_image[<position>]" file parts
// uploaded to R2 (or the local uploads dir). Puzzle and clues are created
// atomically.
func (s *PuzzleService) CreatePuzzle(c *fiber.Ctx) error {
	type Req struct {
		RoundNumber      int         `json:"round_number"`
		RoundName        string      `json:"round_name"`
		MasterPassword   string      `json:"master_password"`
		MaxPowerups      *int        `json:"max_powerups,omitempty"`
		MaxHints         *int        `json:"max_hints,omitempty"`
		ScheduledStartAt *time.Time  `json:"scheduled_start_at,omitempty"`
		Clues            []ClueInput `json:"clues"`
	}

	var req Req
	if raw := c.FormValue("puzzle"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid_puzzle_json"})
		}
	} else if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}

	if req.MasterPassword == "" || len(req.Clues) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "missing_puzzle_data"})
	}
	if len(req.Clues) != len(req.MasterPassword) {
		return c.Status(400).JSON(fiber.Map{"error": "clue_count_password_length_mismatch"})
	}

	roundNumber := req.RoundNumber
	if roundNumber < 1 {
		roundNumber = 1
	}
	roundName := req.RoundName
	if roundName == "" {
		roundName = fmt.Sprintf("Round %d", roundNumber)
	}

	puzzle := models.Puzzle{
		ID:               uuid.NewString(),
		RoundNumber:      roundNumber,
		RoundName:        roundName,
		RoundSlug:        slug.Make(roundName),
		MasterPassword:   req.MasterPassword,
		MaxPowerups:      3,
		MaxHints:         5,
		ScheduledStartAt: req.ScheduledStartAt,
	}
	if req.MaxPowerups != nil {
		puzzle.MaxPowerups = *req.MaxPowerups
	}
	if req.MaxHints != nil {
		puzzle.MaxHints = *req.MaxHints
	}

	clues := make([]models.Clue, 0, len(req.Clues))
	for _, in := range req.Clues {
		if in.ExpectedAnswer == "" {
			return c.Status(400).JSON(fiber.Map{"error": "missing_expected_answer", "position": in.CharacterPosition})
		}

		maxTries := in.MaxTries
		if maxTries < 1 {
			maxTries = 3
		}
		lockout := in.LockoutDurationSeconds
		if lockout < 1 {
			lockout = 30
		}

		clue := models.Clue{
			ID:                     uuid.NewString(),
			PuzzleID:               puzzle.ID,
			CharacterPosition:      in.CharacterPosition,
			ClueText:               in.ClueText,
			HintText1:              in.HintText1,
			HintText2:              in.HintText2,
			HintText3:              in.HintText3,
			ExpectedAnswer:         in.ExpectedAnswer,
			MaxTries:               maxTries,
			LockoutDurationSeconds: lockout,
		}

		// Optional clue image → R2 (or local uploads fallback)
		imageKey := fmt.Sprintf("clue_image[%d]", in.CharacterPosition)
		if image, err := c.FormFile(imageKey); err == nil && image.Size > 0 {
			ext := filepath.Ext(image.Filename)
			if ext == "" {
				ext = ".jpg"
			}
			url, err := utils.UploadClueImage(image, uuid.NewString()+ext)
			if err != nil {
				log.Printf("❌ [PUZZLES] Clue image upload failed: %v", err)
				return c.Status(500).JSON(fiber.Map{"error": "image_upload_failed"})
			}
			clue.ImageURL = url
		}

		clues = append(clues, clue)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Clues").Create(&puzzle).Error; err != nil {
			return err
		}
		return tx.Create(&clues).Error
	})
	if err != nil {
		log.Printf("❌ [PUZZLES] Create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	puzzle.Clues = clues
	return c.Status(201).JSON(fiber.Map{"puzzle": puzzle})
}

// ListPuzzles handles GET /admin/puzzles: all rounds with their clues,
// ordered by round number.
func (s *PuzzleService) ListPuzzles(c *fiber.Ctx) error {
	var puzzles []models.Puzzle
	err := s.DB.
		Preload("Clues", func(db *gorm.DB) *gorm.DB {
			return db.Order("character_position ASC")
		}).
		Order("round_number ASC").
		Find(&puzzles).Error
	if err != nil {
		log.Printf("❌ [PUZZLES] List failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}
	return c.JSON(fiber.Map{"puzzles": puzzles})
}

// TogglePowerups handles POST /admin/powerups/toggle {enabled}: flips the
// active puzzle's powerup cap between 0 (off) and 3 (default).
func (s *PuzzleService) TogglePowerups(c *fiber.Ctx) error {
	type Req struct {
		Enabled bool `json:"enabled"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_json"})
	}

	puzzle, err := s.Rounds.ActivePuzzle()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "no_active_puzzle"})
	}

	maxPowerups := 0
	if req.Enabled {
		maxPowerups = 3
	}
	if err := s.DB.Model(&models.Puzzle{}).Where("id = ?", puzzle.ID).
		Update("max_powerups", maxPowerups).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "db_error"})
	}

	return c.JSON(fiber.Map{"success": true, "powerups_enabled": req.Enabled, "max_powerups": maxPowerups})
}
