// Command createadmin creates an admin account or resets its password. It is
// safe to run repeatedly.
//
//	createadmin -email admin@example.com -password secret123
//
// ADMIN_EMAIL and ADMIN_PASSWORD are used when the flags are omitted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"petition/internal/app"
	"petition/internal/config"
	"petition/internal/logger"
	"petition/internal/repositories"
	"petition/internal/services"
	"petition/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("createadmin needs the postgres driver, got %q", cfg.Database.Driver)
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := app.OpenPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.CreateSchema(ctx, db); err != nil {
		return err
	}

	store := repositories.NewPostgresStore(db)
	// token settings are irrelevant here
	auth := services.NewAuthService(store, utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL), log)

	admin, created, err := auth.UpsertAdmin(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	if created {
		log.Info("admin created", zap.String("email", admin.Email), zap.String("admin_id", admin.ID.String()))
	} else {
		log.Info("admin password updated", zap.String("email", admin.Email), zap.String("admin_id", admin.ID.String()))
	}
	return nil
}
