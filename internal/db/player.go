package db

import "time"

type Player struct {
	ID        uint       `gorm:"primaryKey"`
	GameID    uint       `gorm:"index;not null;uniqueIndex:idx_players_game_conn"`
	ConnID    string     `gorm:"size:64;not null;uniqueIndex:idx_players_game_conn"`
	Name      string     `gorm:"size:64;not null"`
	IsHost    bool       `gorm:"not null;default:false"`
	JoinedAt  time.Time  `gorm:"not null"`
	LeftAt    *time.Time
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}
