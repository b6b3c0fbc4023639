package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	SlackBotToken   string
	SlackChannel    string

	LibraryPath string
	ArtifactDir string

	ConfidenceFloor        float64
	PatternCap             int
	PacingSeconds          int
	DeleteOnExtractFailure bool
}

func Load() Config {
	return Config{
		Port:            envInt("DISTILL_PORT", 8780),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("DISTILL_MODEL", "claude-sonnet-4-20250514"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		SlackBotToken:   envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:    envStr("SLACK_REVIEW_CHANNEL", ""),

		LibraryPath: envStr("DISTILL_LIBRARY_PATH", "wisdom-library.json"),
		ArtifactDir: envStr("DISTILL_ARTIFACT_DIR", "anonymized"),

		ConfidenceFloor:        envFloat("DISTILL_CONFIDENCE_FLOOR", 0.7),
		PatternCap:             envInt("DISTILL_PATTERN_CAP", 10),
		PacingSeconds:          envInt("DISTILL_PACING_SECONDS", 3),
		DeleteOnExtractFailure: envBool("DISTILL_DELETE_ON_EXTRACT_FAILURE", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
