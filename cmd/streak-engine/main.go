package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/streak-engine/internal/api"
	"github.com/terra-clan/streak-engine/internal/auth"
	"github.com/terra-clan/streak-engine/internal/catalog"
	"github.com/terra-clan/streak-engine/internal/config"
	"github.com/terra-clan/streak-engine/internal/health"
	"github.com/terra-clan/streak-engine/internal/progression"
	"github.com/terra-clan/streak-engine/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting streak-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Database.Driver,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	repo, err := storage.Open(initCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	registry := health.NewRegistry()
	registry.Register(cfg.Database.Driver, health.CheckerFunc(repo.Ping))

	var sessions auth.SessionCache
	if cfg.Redis.Enabled {
		redisClient, err := health.NewRedisClient(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		registry.Register("redis", health.NewRedisChecker(redisClient))
		sessions = auth.NewRedisSessionCache(redisClient)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewAuthenticator(tokens, sessions, cfg.Auth.CacheTTL)

	engine := progression.NewService(repo)

	// An in-memory store starts empty, so seed it from the bundled catalog
	if cfg.Database.Driver == config.DriverMemory {
		seedCatalog(initCtx, cfg.Catalog.File, engine, repo, tokens)
	}

	server := api.NewServer(cfg.Server, engine, api.NewAuthMiddleware(authenticator, cfg.Auth.CookieName), registry)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("streak-engine stopped")
}

func seedCatalog(ctx context.Context, path string, engine *progression.Service, repo storage.Repository, tokens *auth.Tokens) {
	loader := catalog.NewLoader()
	if err := loader.LoadFromFile(path); err != nil {
		slog.Warn("failed to load catalog", "file", path, "error", err)
		return
	}

	res, err := catalog.Seed(ctx, loader, engine, repo)
	if err != nil {
		slog.Warn("failed to seed catalog", "error", err)
		return
	}

	for _, user := range res.Users {
		token, err := tokens.Issue(user.ID, user.Role)
		if err != nil {
			slog.Warn("failed to issue token", "email", user.Email, "error", err)
			continue
		}
		slog.Info("session token issued", "email", user.Email, "role", user.Role, "token", token)
	}
}
