package models

import (
	"time"
)

// TeamProgress is the per-team-per-clue attempt record, created lazily on the
// first guess. tries_used only ever grows until either completed flips true
// (terminal) or the tries run out and the row locks. An expired lock is
// cleared, with tries reset, on the next read.
type TeamProgress struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	TeamID      string     `json:"team_id" gorm:"not null;index:idx_progress_team_clue,unique"`
	ClueID      string     `json:"clue_id" gorm:"not null;index:idx_progress_team_clue,unique"`
	TriesUsed   int        `json:"tries_used" gorm:"default:0"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}
