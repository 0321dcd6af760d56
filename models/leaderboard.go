package models

import (
	"time"
)

// DidNotFinishSeconds is the sentinel elapsed time written for teams that
// never completed the round. It scores zero.
const DidNotFinishSeconds = 9999

// LeaderboardEntry is computed at round end, one row per team per puzzle,
// replaced wholesale on the next end-game computation.
type LeaderboardEntry struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	TeamID      string    `json:"team_id" gorm:"not null;index:idx_leaderboard_team_puzzle,unique"`
	PuzzleID    string    `json:"puzzle_id" gorm:"not null;index:idx_leaderboard_team_puzzle,unique"`
	TimeSeconds int       `json:"time_seconds"`
	HintsUsed   int       `json:"hints_used"`
	Score       float64   `json:"score"`
	Rank        int       `json:"rank" gorm:"index"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Team Team `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}
