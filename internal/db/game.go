package db

import "time"

const (
	GameStatusOpen      = "open"
	GameStatusFinished  = "finished"
	GameStatusClosed    = "closed"
	GameStatusAbandoned = "abandoned"
)

// Game is one journaled session. Join codes are only unique among open rows;
// a code freed by a finished session may be handed out again.
type Game struct {
	ID        uint       `gorm:"primaryKey"`
	JoinCode  string     `gorm:"size:6;not null;uniqueIndex:idx_games_open_code,where:ended_at IS NULL"`
	Status    string     `gorm:"size:32;not null"`
	Rounds    int        `gorm:"not null;default:0"`
	StartedAt time.Time  `gorm:"not null"`
	EndedAt   *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	Players   []Player
	Events    []Event
	Results   []Result
}
