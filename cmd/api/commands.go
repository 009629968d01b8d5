package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

func runMigrate(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrate(c.Context, db, log)
}

func runSeed(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(c.Context, db, log); err != nil {
		return err
	}

	adminEmail := cfg.Seed.AdminEmail
	if v := c.String("admin-email"); v != "" {
		adminEmail = v
	}
	adminPassword := cfg.Seed.AdminPassword
	if v := c.String("admin-password"); v != "" {
		adminPassword = v
	}
	return seed(c.Context, cfg, db, adminEmail, adminPassword, log)
}

func runPurgeCarts(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	var cache cart.Cache = cart.NoopCache{}
	if conn, err := redis.NewConnection(cfg, log); err != nil {
		log.WithError(err).Warn("redis unavailable; cached carts expire on their own TTL")
	} else {
		defer conn.Close()
		cache = cart.NewRedisCache(conn.GetClient(), cfg.Cart.CacheTTL)
	}

	carts := cart.NewService(db.GetDB(), cache, pricing.NewEvaluator(pricing.DefaultCoupons()), cfg.Cart.TTL, log)
	n, err := carts.PurgeExpired(c.Context)
	if err != nil {
		return fmt.Errorf("failed to purge carts: %w", err)
	}

	fields := logrus.Fields{"carts": n}
	if retention := c.Duration("outbox-retention"); retention > 0 {
		purged, err := outbox.NewStore(db.GetDB()).PurgeSent(c.Context, time.Now().UTC().Add(-retention))
		if err != nil {
			return fmt.Errorf("failed to purge outbox: %w", err)
		}
		fields["outbox_events"] = purged
	}
	log.WithFields(fields).Info("purge completed")
	return nil
}

func migrate(ctx context.Context, db *postgres.DB, log logrus.FieldLogger) error {
	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(ctx); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	if err := migration.CreateIndexes(ctx); err != nil {
		log.WithError(err).Warn("index creation failed")
	}
	return nil
}

func seed(ctx context.Context, cfg *config.Config, db *postgres.DB, adminEmail, adminPassword string, log logrus.FieldLogger) error {
	return postgres.NewMigration(db.GetDB(), log).SeedInitialData(ctx, postgres.SeedOptions{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		Passwords:     auth.NewPasswordManager(cfg),
	})
}
