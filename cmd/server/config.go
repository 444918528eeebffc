package main

import (
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/env"
)

// config holds deployment-time knobs, loaded from environment variables
// following the teacher's flat env.Str/env.Int idiom.
type config struct {
	port string

	sttURL     string
	alignURL   string
	phonemeURL string

	openaiAPIKey    string
	openaiModel     string
	anthropicAPIKey string
	anthropicURL    string
	anthropicModel  string
	llmEngine       string

	redisURL    string
	postgresURL string

	maxConcurrentJobs int
	jobTTL            time.Duration
	maxUploadBytes    int64
	modelPoolSize     int
	modelTimeout      time.Duration

	engineVersion string
}

func loadConfig() config {
	return config{
		port: env.Str("PORT", "8080"),

		sttURL:     env.Str("STT_URL", "http://localhost:9001"),
		alignURL:   env.Str("ALIGN_URL", "http://localhost:9002"),
		phonemeURL: env.Str("PHONEME_URL", "http://localhost:9003"),

		openaiAPIKey:    env.Str("OPENAI_API_KEY", ""),
		openaiModel:     env.Str("OPENAI_MODEL", "gpt-4.1-mini"),
		anthropicAPIKey: env.Str("ANTHROPIC_API_KEY", ""),
		anthropicURL:    env.Str("ANTHROPIC_URL", "https://api.anthropic.com"),
		anthropicModel:  env.Str("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		llmEngine:       env.Str("LLM_ENGINE", "openai"),

		redisURL:    env.Str("REDIS_URL", ""),
		postgresURL: env.Str("POSTGRES_URL", ""),

		maxConcurrentJobs: env.Int("MAX_CONCURRENT_JOBS", 8),
		jobTTL:            env.Duration("JOB_TTL", 2*time.Hour),
		maxUploadBytes:    int64(env.Int("MAX_UPLOAD_MB", 50)) * 1024 * 1024,
		modelPoolSize:     env.Int("MODEL_POOL_SIZE", 20),
		modelTimeout:      env.Duration("MODEL_TIMEOUT", 60*time.Second),

		engineVersion: env.Str("ENGINE_VERSION", "1.0.0"),
	}
}
