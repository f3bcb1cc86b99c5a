package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chatnslate/internal/cache"
	"chatnslate/internal/config"
	"chatnslate/internal/fanout"
	"chatnslate/internal/httpserver"
	"chatnslate/internal/security"
	"chatnslate/internal/store/postgres"
	"chatnslate/internal/store/sqlite"
	"chatnslate/internal/translation"
	"chatnslate/internal/ws"
)

// @title           ChatNSlate API
// @version         1.0
// @description     Two-party chat backend with automatic message translation.

// @host            localhost:8000
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("load config")
	}

	log := newLogger(cfg)

	// Storage
	var (
		db    *sql.DB
		repos httpserver.Repos
	)
	switch cfg.DatabaseDriver {
	case "sqlite":
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		if err := sqlite.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
		repos = httpserver.NewSQLiteRepos(db)
	default:
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		if err := postgres.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
		repos = httpserver.NewPostgresRepos(db)
	}
	defer db.Close()

	// Hot translation cache: redis when configured, in-process LRU otherwise.
	var hot cache.Cache
	if cfg.RedisURL != "" {
		hot, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
	} else {
		hot, err = cache.NewMemoryCache(10_000)
		if err != nil {
			log.Fatal().Err(err).Msg("init memory cache")
		}
	}
	defer hot.Close()

	// Translation pipeline
	provider := translation.NewProvider(translation.LLMConfig{
		APIKey:  cfg.TranslatorAPIKey,
		BaseURL: cfg.TranslatorBaseURL,
		Model:   cfg.TranslatorModel,
	}, log)
	translations := translation.NewCacheManager(provider, repos.Messages, hot, cfg.TranslationCacheTTL, log)

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	// Realtime fan-out
	broker := fanout.NewBroker(repos.Messages, repos.Profiles, translations, log)
	hub := ws.NewHub()

	router := httpserver.NewRouter(cfg, repos, hub, broker, tokenSvc, passwordHasher, provider, translations, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr()).Str("driver", cfg.DatabaseDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	var w = zerolog.New(os.Stderr)
	if cfg.Env == "development" {
		w = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return w.Level(level).With().Timestamp().Str("app", "chatnslate").Logger()
}
