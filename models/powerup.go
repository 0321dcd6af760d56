package models

import (
	"time"
)

// Closed set of powerup effects. Unknown effect tags are rejected when a team
// selects its powerups, not silently ignored at use time.
const (
	EffectExtraTry           = "extra_try"
	EffectFreeHint           = "free_hint"
	EffectSurviveElimination = "survive_elimination"
)

// KnownEffectType reports whether t is one of the supported effect tags.
func KnownEffectType(t string) bool {
	switch t {
	case EffectExtraTry, EffectFreeHint, EffectSurviveElimination:
		return true
	}
	return false
}

// Powerup is a catalog entry: a named single-use modifier with a fixed effect.
type Powerup struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	EffectType  string    `json:"effect_type" gorm:"type:varchar(32);not null"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TeamPowerup is one selected assignment: team × powerup × puzzle. is_used is
// a one-way flag; flipping it is the consumption of the powerup.
type TeamPowerup struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid"`
	TeamID    string     `json:"team_id" gorm:"not null;index:idx_team_powerup_round,unique"`
	PowerupID string     `json:"powerup_id" gorm:"not null;index:idx_team_powerup_round,unique"`
	PuzzleID  string     `json:"puzzle_id" gorm:"not null;index:idx_team_powerup_round,unique"`
	IsUsed    bool       `json:"is_used" gorm:"default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`

	Powerup Powerup `json:"powerup,omitempty" gorm:"foreignKey:PowerupID"`
}
