package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session is the durable record of a lobby. The live match state lives in
// memory (services.GameSession); this row only tracks coarse status and the
// final outcome.
type Session struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SessionCode  string         `gorm:"uniqueIndex" json:"session_code"`
	LobbyName    string         `json:"lobby_name"`
	HostID       uint           `json:"host_id"`
	Status       string         `json:"status"` // waiting | playing | finished | closed
	MaxPlayers   int            `json:"max_players"`
	IsPublic     bool           `json:"is_public"`
	RankingsJSON datatypes.JSON `json:"rankings,omitempty"` // final standings, written at match end
	CreatedAt    time.Time      `json:"created_at"`

	Players []SessionPlayer `gorm:"foreignKey:SessionID" json:"players,omitempty"`
}
