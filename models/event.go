package models

import (
	"time"
)

// Lifecycle event vocabulary broadcast to spectators and players.
const (
	EventGameStart    = "GAME_START"
	EventGameEnd      = "GAME_END"
	EventRoundAdvance = "ROUND_ADVANCE"
	EventExtraLife    = "EXTRA_LIFE"
)

// GameEvent is an outbox row: lifecycle mutations commit one of these in the
// same transaction as the state change, and the outbox worker relays it to
// subscribers afterwards. Delivery is at-least-once and best-effort; a failed
// relay never rolls back the state mutation.
type GameEvent struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	Type        string     `json:"type" gorm:"type:varchar(16);not null"`
	PuzzleID    string     `json:"puzzle_id,omitempty"`
	RoundSlug   string     `json:"round_slug,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
}
