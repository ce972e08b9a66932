package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/reposage/reposage/internal/cli"
)

func main() {
	// Best-effort .env loading; real env vars win.
	godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
