package main

import (
	"log"
	"os"

	"bayes-court/internal/config"
	"bayes-court/internal/console"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	game := console.New(os.Stdin, os.Stdout, cfg.CaseDir)
	if err := game.Run(); err != nil {
		log.Fatal(err)
	}
}
