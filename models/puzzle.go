package models

import (
	"time"
)

// Puzzle is one timed round: a master password whose characters are revealed
// clue by clue. At most one puzzle is active (selected) at a time; is_live
// flags whether it currently accepts guesses.
type Puzzle struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	RoundNumber    int    `json:"round_number" gorm:"default:1"`
	RoundName      string `json:"round_name"`
	RoundSlug      string `json:"round_slug" gorm:"index"`
	MasterPassword string `json:"master_password" gorm:"not null"`
	IsActive       bool   `json:"is_active" gorm:"default:false;index"`
	IsLive         bool   `json:"is_live" gorm:"default:false"`

	// Per-round caps
	MaxPowerups int `json:"max_powerups" gorm:"default:3"`
	MaxHints    int `json:"max_hints" gorm:"default:5"`

	// When set, the round scheduler flips this puzzle live automatically.
	ScheduledStartAt *time.Time `json:"scheduled_start_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Clues []Clue `json:"clues,omitempty" gorm:"foreignKey:PuzzleID"`
}

// Clue is one character-level challenge, addressed by its position in the
// master password. Hint tiers are independent content slots; any tier costs
// one token.
type Clue struct {
	ID                string `json:"id" gorm:"primaryKey;type:uuid"`
	PuzzleID          string `json:"puzzle_id" gorm:"not null;index:idx_clues_puzzle_position,unique"`
	CharacterPosition int    `json:"character_position" gorm:"not null;index:idx_clues_puzzle_position,unique"`
	ClueText          string `json:"clue_text" gorm:"type:text"`
	HintText1         string `json:"hint_text_1" gorm:"type:text"`
	HintText2         string `json:"hint_text_2" gorm:"type:text"`
	HintText3         string `json:"hint_text_3" gorm:"type:text"`
	ImageURL          string `json:"image_url,omitempty"`
	ExpectedAnswer    string `json:"expected_answer" gorm:"not null"`

	MaxTries               int `json:"max_tries" gorm:"default:3"`
	LockoutDurationSeconds int `json:"lockout_duration_seconds" gorm:"default:30"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
