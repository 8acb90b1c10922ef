// Command seedadmin creates the administrator account so nobody has to race
// for the admin username through the public register form.
//
// Usage:
//
//	ADMIN_PASSWORD=... go run ./cmd/seedadmin
//
// ADMIN_USERNAME defaults to the first name in the admin allow-list. An
// existing account is left as it is, password included.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sakif/video-catalog/internal/auth"
	"github.com/sakif/video-catalog/internal/config"
	"github.com/sakif/video-catalog/internal/repository/sqlstore"
	"github.com/sakif/video-catalog/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stdout)

	admins := cfg.AdminUsernames()
	username := cfg.Auth.SeedUsername
	if username == "" {
		username = admins[0]
	}
	if cfg.Auth.SeedPassword == "" {
		logger.Error("ADMIN_PASSWORD is required")
		os.Exit(1)
	}
	if !slices.Contains(admins, username) {
		logger.Warn("seeded account is not in the admin allow-list and will have no admin rights",
			slog.String("username", username),
		)
	}

	if cfg.Database.Driver == config.DriverSQLite && cfg.Database.DSN != ":memory:" && !strings.HasPrefix(cfg.Database.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			logger.Error("failed to create database directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	accounts := service.NewAuthService(db.Users(), auth.NewPasswordService(cfg.Auth.BcryptCost), logger)
	created, err := accounts.EnsureAccount(ctx, username, cfg.Auth.SeedPassword)
	if err != nil {
		logger.Error("failed to seed admin", slog.String("username", username), slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}

	if created {
		logger.Info("admin account created", slog.String("username", username))
	} else {
		logger.Info("admin account already exists", slog.String("username", username))
	}
}
