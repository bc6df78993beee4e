package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/MakuD3v/Edu-Party-Mayhem/config"
	"github.com/MakuD3v/Edu-Party-Mayhem/models"
	"github.com/MakuD3v/Edu-Party-Mayhem/services"
	"github.com/MakuD3v/Edu-Party-Mayhem/utils/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict this in production to the frontend origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GameWebSocket upgrades /ws/:code/:user_id and hands the connection to the
// lobby. Display name and host come from the store when available; without
// a row the first connector becomes the host.
func GameWebSocket(manager *services.LobbyManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		userID64, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		userID := uint(userID64)

		name := fmt.Sprintf("Player %d", userID)
		hostID := userID
		if config.DB != nil {
			var user models.User
			if err := config.DB.First(&user, userID).Error; err == nil {
				name = user.Username
			} else {
				logger.Infof("[WS] user %d not found, using fallback name: %v", userID, err)
			}
			var session models.Session
			if err := config.DB.Where("session_code = ?", code).First(&session).Error; err == nil {
				hostID = session.HostID
			} else {
				logger.Infof("[WS] session %s not found, using fallback host: %v", code, err)
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[WS] upgrade error: %v", err)
			return
		}

		logger.Infof("[WS] new client: userID=%d, session=%s", userID, code)

		lobby := manager.GetOrCreate(code, hostID)
		client := services.NewClient(conn, userID, name)
		lobby.AddClient(client)
		client.Run()
	}
}
