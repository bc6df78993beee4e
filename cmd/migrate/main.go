package main

import (
	"log"

	"github.com/MakuD3v/Edu-Party-Mayhem/config"
)

func main() {
	config.Load()
	config.SetupDatabase() // connects + migrates
	log.Println("[Init] Database migration completed successfully")
}
