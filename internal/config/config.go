package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	// OriginPatterns loosens the websocket origin check; empty means
	// same-origin only.
	OriginPatterns []string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Addr:        getenv("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	if v := os.Getenv("WS_ORIGIN_PATTERNS"); v != "" {
		cfg.OriginPatterns = strings.Split(v, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
