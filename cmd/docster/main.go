package main

import (
	"github.com/joho/godotenv"

	"github.com/sujeethshingade/docster/internal/adapters/driving/cli"
)

func main() {
	// Best effort; a missing .env file is fine.
	godotenv.Load()

	cli.Execute()
}
