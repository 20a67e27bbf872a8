package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"askify/internal/cache"
	"askify/internal/config"
	"askify/internal/dub"
	"askify/internal/llm"
	"askify/internal/logger"
	"askify/internal/queue"
	"askify/internal/speech"
	"askify/internal/store"
	"askify/internal/tts"
)

// Deps bundles runtime dependencies for the gateway service.
type Deps struct {
	Config      config.Config
	Log         *slog.Logger
	Store       store.Store
	Queue       queue.Queue
	Cache       cache.Cache
	LLM         llm.Client
	Transcriber speech.Transcriber
	Synthesizer tts.Synthesizer
}

// WorkerDeps bundles runtime dependencies for the dub worker.
type WorkerDeps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
	Cache  cache.Cache
	LLM    llm.Client
	Dub    *dub.Client
}

// Build loads env, config, and the gateway's shared components.
func Build() (Deps, error) {
	cfg, log := loadBase()

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	transcriber, err := speech.NewWhisperClient(cfg.OpenAIKey, cfg.WhisperModel, cfg.SpeechLanguage)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize transcriber: %w", err)
	}
	synth, err := tts.NewMurfClient(cfg.MurfKey, cfg.MurfVoice, cfg.MurfSampleRate)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize synthesizer: %w", err)
	}
	c := buildCache(cfg, log)

	return Deps{
		Config:      cfg,
		Log:         log,
		Store:       st,
		Queue:       q,
		Cache:       c,
		LLM:         llmClient,
		Transcriber: transcriber,
		Synthesizer: synth,
	}, nil
}

// BuildWorker loads env, config, and the dub worker's components.
func BuildWorker() (WorkerDeps, error) {
	cfg, log := loadBase()

	st, err := buildStore(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	dubClient, err := dub.NewClient(cfg.MurfKey,
		time.Duration(cfg.DubPollSec)*time.Second,
		time.Duration(cfg.DubTimeoutSec)*time.Second)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize dub client: %w", err)
	}

	return WorkerDeps{
		Config: cfg,
		Log:    log,
		Store:  st,
		Queue:  q,
		Cache:  buildCache(cfg, log),
		LLM:    llmClient,
		Dub:    dubClient,
	}, nil
}

func loadBase() (config.Config, *slog.Logger) {
	// A missing .env file is fine in containerized deployments where the
	// environment is injected directly.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel)
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required")
	}
	client, err := llm.NewGeminiClient(cfg.GeminiKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	log.Info("using Gemini LLM client", "model", cfg.GeminiModel)
	return client, nil
}

func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, falling back to no-op cache", "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return c
	default:
		log.Info("using no-op cache")
		return cache.NewNoOpCache()
	}
}
