package models

import (
	"time"
)

// Team lifecycle statuses. A join code starts UNUSED and flips to ACTIVE
// exactly once, when a device claims it.
const (
	TeamStatusUnused = "UNUSED"
	TeamStatusActive = "ACTIVE"
)

// DefaultHintTokens is the token balance a freshly generated (or reset) team holds.
const DefaultHintTokens = 3

// Team is one participating unit, authenticated by its join code and tracked
// through one or more rounds.
type Team struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	TeamName string `json:"team_name"`
	JoinCode string `json:"join_code" gorm:"uniqueIndex;not null;type:varchar(8)"`
	Status   string `json:"status" gorm:"type:varchar(8);default:'UNUSED';index"`

	// Round progress
	CurrentPuzzleID       *string    `json:"current_puzzle_id,omitempty" gorm:"type:uuid;index"`
	CurrentCharacterIndex int        `json:"current_character_index" gorm:"default:0"`
	RoundStartTime        *time.Time `json:"round_start_time,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	FinalAnswerSubmitted  bool       `json:"final_answer_submitted" gorm:"default:false"`

	// Elimination / qualification
	IsEliminated bool       `json:"is_eliminated" gorm:"default:false"`
	EliminatedAt *time.Time `json:"eliminated_at,omitempty"`
	IsQualified  bool       `json:"is_qualified" gorm:"default:true"`

	// Hint economy
	HintTokens     int `json:"hint_tokens" gorm:"default:3"`
	HintsUsedRound int `json:"hints_used_round" gorm:"default:0"`

	// Powerup ids the team picked for the current round (authoritative rows
	// live in team_powerups; this mirrors them for cheap reads).
	SelectedPowerups []string `json:"selected_powerups" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
