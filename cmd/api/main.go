package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"scribechat/internal/api"
	"scribechat/internal/cache"
	"scribechat/internal/chat"
	"scribechat/internal/config"
	"scribechat/internal/database"
	"scribechat/internal/llm"
	"scribechat/internal/prompt"
	"scribechat/internal/store"
	"scribechat/internal/stt"
	"scribechat/internal/transcription"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Database connection — fall back to the in-memory store when no
	// DATABASE_URL is configured or Postgres is unreachable.
	var st store.Store
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, using in-memory store", "error", err)
		st = store.NewMemory()
	} else {
		defer db.Close()
		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		st = store.NewPostgres(db)
	}

	// Redis connection (optional) — when reachable, transcription lookups
	// go through a read-through cache.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
		rdb.Close()
		rdb = nil
	} else {
		defer rdb.Close()
		st = cache.NewStore(st, cache.NewCache(rdb))
	}

	sttProvider := newSTTProvider(cfg.STT)
	llmProvider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		slog.Error("failed to build LLM provider", "error", err)
		os.Exit(1)
	}
	slog.Info("providers ready", "stt", sttProvider.Name(), "llm", llmProvider.Name(), "model", cfg.LLM.Model)

	transSvc := transcription.NewService(sttProvider, st, cfg.STT)
	assembler := prompt.NewAssembler(cfg.Chat.ContextMaxChars)
	chatSvc := chat.NewService(st, llmProvider, assembler, cfg.Chat, cfg.LLM.Model)

	router := api.NewRouter(db, rdb, transSvc, chatSvc)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func newSTTProvider(cfg config.STTConfig) stt.Provider {
	if cfg.Backend == "local" {
		return stt.NewLocal(stt.LocalConfig{BaseURL: cfg.LocalBaseURL})
	}
	return stt.NewOpenAI(stt.OpenAIConfig{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
}
