package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnv pulls a local .env into the process environment. Variables that
// are already set win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
}
