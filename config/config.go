package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Settings holds everything read from the environment at startup.
type Settings struct {
	DatabaseURL   string
	Port          string
	SecretKey     string
	AllowedOrigin string
	DevMode       bool // permissive start gate, skips readiness/headcount checks
}

var C Settings

// Load reads .env (if present) and populates C.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	C = Settings{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          os.Getenv("PORT"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		DevMode:       os.Getenv("DEV_MODE") == "true",
	}

	if C.Port == "" {
		C.Port = "4000"
	}
	if C.SecretKey == "" {
		C.SecretKey = "supersecretkey"
	}
	if C.AllowedOrigin == "" {
		C.AllowedOrigin = "http://localhost:3000"
	}
}
