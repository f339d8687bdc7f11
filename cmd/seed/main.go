// Command seed creates an admin account, or promotes an existing account to admin.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/bootstrap"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func main() {
	flags := pflag.NewFlagSet("seed", pflag.ExitOnError)
	name := flags.String("name", "Administrator", "display name for a newly created admin")
	email := flags.StringP("email", "e", "", "admin email address (required)")
	password := flags.StringP("password", "p", os.Getenv("SEED_ADMIN_PASSWORD"), "password for a newly created admin (defaults to $SEED_ADMIN_PASSWORD)")
	_ = flags.Parse(os.Args[1:])

	if *email == "" {
		fmt.Fprintln(os.Stderr, "seed: --email is required")
		flags.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	backend, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer backend.Close()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: backend.Store.Users})
	user, created, err := authService.EnsureAdmin(ctx, service.RegisterInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	if created {
		logger.Info("admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		return
	}
	logger.Info("admin ensured", zap.String("user_id", user.ID), zap.String("email", user.Email))
}
