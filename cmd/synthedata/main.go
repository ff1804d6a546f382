package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/synthedata/internal/cli"
)

func main() {
	// A missing .env is fine; real environment variables win.
	_ = godotenv.Load()
	os.Exit(cli.Execute())
}
