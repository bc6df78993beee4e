package services

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/MakuD3v/Edu-Party-Mayhem/models"
)

// Store is the persistence collaborator. Every call is best-effort: the
// in-memory session is the authoritative source of truth during a match,
// so callers log failures and carry on.
type Store interface {
	SetSessionStatus(code, status string) error
	SaveFinalRankings(code string, rankings []PlayerState) error
	MarkEliminated(code string, userIDs []uint) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) SetSessionStatus(code, status string) error {
	return s.db.Model(&models.Session{}).
		Where("session_code = ?", code).
		Update("status", status).Error
}

func (s *gormStore) SaveFinalRankings(code string, rankings []PlayerState) error {
	b, err := json.Marshal(rankings)
	if err != nil {
		return err
	}
	return s.db.Model(&models.Session{}).
		Where("session_code = ?", code).
		Updates(map[string]any{
			"status":        "finished",
			"rankings_json": datatypes.JSON(b),
		}).Error
}

func (s *gormStore) MarkEliminated(code string, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.db.Model(&models.SessionPlayer{}).
		Where("session_id = (?)", s.db.Model(&models.Session{}).Select("id").Where("session_code = ?", code)).
		Where("user_id IN ?", userIDs).
		Update("is_eliminated", true).Error
}
