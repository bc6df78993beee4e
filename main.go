package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MakuD3v/Edu-Party-Mayhem/config"
	"github.com/MakuD3v/Edu-Party-Mayhem/routes"
	"github.com/MakuD3v/Edu-Party-Mayhem/services"
)

// setupRouter initializes Gin routes and middleware
func setupRouter(manager *services.LobbyManager) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.C.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, manager)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	return r
}

func main() {
	// Load env variables
	config.Load()

	// Connect to database
	db := config.SetupDatabase()

	// In-memory game state: connection hub + lobby registry
	hub := services.NewHub()
	manager := services.NewLobbyManager(hub, services.NewGormStore(db),
		services.WithDevMode(config.C.DevMode))

	router := setupRouter(manager)

	log.Printf("[Init] Edu Party Mayhem server starting on port %s", config.C.Port)
	if err := router.Run(":" + config.C.Port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
