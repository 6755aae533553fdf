package db

import "time"

// Result is one player's final standing.
type Result struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null;uniqueIndex:idx_results_game_conn"`
	ConnID    string    `gorm:"size:64;not null;uniqueIndex:idx_results_game_conn"`
	Name      string    `gorm:"size:64;not null"`
	Score     int       `gorm:"not null"`
	Position  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
