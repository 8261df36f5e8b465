package config

import (
	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env and .env.local from the working directory.
// Variables already present in the process environment win.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		_ = godotenv.Load(name)
	}
}
