package db

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"workshop/internal/platform/config"
)

// AdminSeeder creates the first administrator when it is missing.
type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

func Seed(ctx context.Context, users AdminSeeder, cfg config.Config, logger *zap.Logger) error {
	if strings.TrimSpace(cfg.SeedAdminEmail) == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		return nil
	}
	created, err := users.EnsureAdmin(ctx, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("seeded admin user", zap.String("email", cfg.SeedAdminEmail))
	}
	return nil
}
