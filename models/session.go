package models

import (
	"time"
)

// Game session statuses.
const (
	SessionStatusSetup = "SETUP"
	SessionStatusLive  = "LIVE"
	SessionStatusDone  = "DONE"
)

// GameSession groups several rounds into one multi-round tournament run.
type GameSession struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name         string    `json:"name" gorm:"not null"`
	TotalRounds  int       `json:"total_rounds" gorm:"default:1"`
	CurrentRound int       `json:"current_round" gorm:"default:0"`
	Status       string    `json:"status" gorm:"type:varchar(8);default:'SETUP'"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
