// cmd/api/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:   "storefront",
		Usage:  "storefront API server and maintenance commands",
		Action: runServe,
		Flags:  serveFlags(),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API with the outbox relay and notification consumer",
				Flags:  serveFlags(),
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "create or update tables, sequences and indexes",
				Action: runMigrate,
			},
			{
				Name:  "seed",
				Usage: "create the bootstrap admin and sample catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "admin-email", Usage: "overrides SEED_ADMIN_EMAIL"},
					&cli.StringFlag{Name: "admin-password", Usage: "overrides SEED_ADMIN_PASSWORD"},
				},
				Action: runSeed,
			},
			{
				Name:  "purge-carts",
				Usage: "delete expired carts and old delivered outbox events",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "outbox-retention",
						Value: 7 * 24 * time.Hour,
						Usage: "delete sent outbox events older than this; 0 keeps them",
					},
				},
				Action: runPurgeCarts,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("storefront exited with error")
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "skip-migrate", Usage: "do not run migrations on start"},
	}
}

// bootstrap loads configuration and builds the service logger.
func bootstrap() (*config.Config, *logrus.Entry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	base, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger.ForService(base, cfg), nil
}
