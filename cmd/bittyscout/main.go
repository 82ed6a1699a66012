package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// API keys and webhook URLs live in .env during local development.
	// Missing file is fine; production sets real environment variables.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
