package models

import "time"

type SessionPlayer struct {
	SessionID    uint      `gorm:"primaryKey" json:"session_id"`
	UserID       uint      `gorm:"primaryKey" json:"user_id"`
	Score        int       `json:"score"`
	IsEliminated bool      `json:"is_eliminated"`
	JoinedAt     time.Time `json:"joined_at"`
}
