package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/terra-clan/streak-engine/internal/auth"
	"github.com/terra-clan/streak-engine/internal/catalog"
	"github.com/terra-clan/streak-engine/internal/config"
	"github.com/terra-clan/streak-engine/internal/progression"
	"github.com/terra-clan/streak-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	path := flag.String("file", cfg.Catalog.File, "catalog file or directory")
	issueTokens := flag.Bool("tokens", true, "print session tokens for created users")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	loader := catalog.NewLoader()
	info, err := os.Stat(*path)
	switch {
	case err != nil:
		slog.Error("catalog not found", "path", *path, "error", err)
		os.Exit(1)
	case info.IsDir():
		err = loader.LoadFromDir(*path)
	default:
		err = loader.LoadFromFile(*path)
	}
	if err != nil {
		slog.Error("failed to load catalog", "path", *path, "error", err)
		os.Exit(1)
	}

	repo, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	res, err := catalog.Seed(ctx, loader, progression.NewService(repo), repo)
	if err != nil {
		slog.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}

	fmt.Printf("users: %d, challenges: %d, problems: %d, skipped: %d\n",
		len(res.Users), res.Challenges, res.Problems, res.Skipped)

	if !*issueTokens {
		return
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	for _, user := range res.Users {
		token, err := tokens.Issue(user.ID, user.Role)
		if err != nil {
			slog.Error("failed to issue token", "email", user.Email, "error", err)
			continue
		}
		fmt.Printf("%s\t%s\t%s\n", user.Email, user.Role, token)
	}
}
