package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/MakuD3v/Edu-Party-Mayhem/controllers"
	"github.com/MakuD3v/Edu-Party-Mayhem/middleware"
	"github.com/MakuD3v/Edu-Party-Mayhem/services"
)

func SetupRoutes(r *gin.Engine, manager *services.LobbyManager) {
	api := r.Group("/api")

	// ----------------------
	// Auth routes
	// ----------------------
	api.POST("/auth/register", controllers.Register)
	api.POST("/auth/login", controllers.Login)

	// ----------------------
	// Matchmaking routes
	// ----------------------
	authorized := api.Group("")
	authorized.Use(middleware.RequireAuth())
	authorized.POST("/sessions", controllers.CreateSession)          // Create lobby
	authorized.POST("/sessions/:code/join", controllers.JoinSession) // Join lobby
	authorized.GET("/sessions", controllers.ListSessions)            // List public lobbies
	authorized.GET("/sessions/:code", controllers.GetSession)        // Lobby detail

	// ----------------------
	// Game websocket
	// ----------------------
	r.GET("/ws/:code/:user_id", controllers.GameWebSocket(manager))
}
