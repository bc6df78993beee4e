package controllers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MakuD3v/Edu-Party-Mayhem/config"
	"github.com/MakuD3v/Edu-Party-Mayhem/models"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codeRng = rand.New(rand.NewSource(time.Now().UnixNano()))

func generateSessionCode() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = codeAlphabet[codeRng.Intn(len(codeAlphabet))]
	}
	return string(code)
}

type createSessionRequest struct {
	LobbyName  string `json:"lobby_name"`
	MaxPlayers int    `json:"max_players"`
	IsPublic   *bool  `json:"is_public"`
}

// CreateSession opens a new waiting lobby hosted by the caller.
func CreateSession(c *gin.Context) {
	hostID := c.GetUint("user_id")

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = 50
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	session := models.Session{
		SessionCode: generateSessionCode(),
		LobbyName:   req.LobbyName,
		HostID:      hostID,
		Status:      "waiting",
		MaxPlayers:  req.MaxPlayers,
		IsPublic:    isPublic,
	}
	if err := config.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// JoinSession adds the caller to a waiting session. Joining twice is a
// no-op.
func JoinSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	code := c.Param("code")

	var session models.Session
	if err := config.DB.Where("session_code = ?", code).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if session.Status != "waiting" {
		c.JSON(http.StatusConflict, gin.H{"error": "Session already started"})
		return
	}

	var existing models.SessionPlayer
	err := config.DB.Where("session_id = ? AND user_id = ?", session.ID, userID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		player := models.SessionPlayer{SessionID: session.ID, UserID: userID, JoinedAt: time.Now()}
		if err := config.DB.Create(&player).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join session"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// ListSessions returns public sessions still waiting for players.
func ListSessions(c *gin.Context) {
	var sessions []models.Session
	if err := config.DB.Where("is_public = ? AND status = ?", true, "waiting").Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession fetches one session with its players.
func GetSession(c *gin.Context) {
	code := c.Param("code")

	var session models.Session
	if err := config.DB.Preload("Players").Where("session_code = ?", code).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, session)
}
