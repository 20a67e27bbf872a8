package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds minimal runtime configuration. Extend as needed.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits and media spool
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"26214400"` // 25MB in bytes
	MediaDir      string `env:"MEDIA_DIR" envDefault:"media"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"` // "postgres" (production database)
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"` // "nats" (required for dub job dispatch)
	QueueURL      string `env:"QUEUE_URL"`

	// Cache (dub status lookups)
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "noop"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	StatusTTLSec  int    `env:"STATUS_TTL_SEC" envDefault:"5"`

	// LLM (Gemini)
	GeminiKey   string `env:"GENAI_API_KEY"`
	GeminiModel string `env:"GENAI_MODEL" envDefault:"gemini-2.0-flash"`

	// Speech recognition (OpenAI Whisper)
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	WhisperModel   string `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	SpeechLanguage string `env:"SPEECH_LANGUAGE" envDefault:"en"`

	// TTS and dubbing (Murf)
	MurfKey        string `env:"MURF_API_KEY"`
	MurfVoice      string `env:"MURF_VOICE" envDefault:"en-US-natalie"`
	MurfSampleRate int    `env:"MURF_SAMPLE_RATE" envDefault:"48000"`
	DubPollSec     int    `env:"DUB_POLL_SEC" envDefault:"3"`
	DubTimeoutSec  int    `env:"DUB_TIMEOUT_SEC" envDefault:"1800"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
