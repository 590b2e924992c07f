package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/pulseboard/internal/cli"
)

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
