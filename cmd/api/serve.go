package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/notification"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/review"
	"github.com/your-org/storefront-backend/internal/domain/subscriber"
	"github.com/your-org/storefront-backend/internal/domain/upload"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/kafka"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	httpserver "github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
)

func runServe(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	log.Infof("starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	cache, err := redis.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer cache.Close()

	if !c.Bool("skip-migrate") {
		if err := migrate(c.Context, db, log); err != nil {
			return err
		}
		if cfg.IsDevelopment() {
			if err := seed(c.Context, cfg, db, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, log); err != nil {
				log.WithError(err).Warn("data seeding failed")
			}
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	gdb := db.GetDB()

	coupons, err := pricing.ParseCoupons(cfg.Checkout.Coupons)
	if err != nil {
		return fmt.Errorf("invalid CHECKOUT_COUPONS: %w", err)
	}
	evaluator := pricing.NewEvaluator(coupons)

	mailer, err := email.NewEmailService(cfg, log.WithField("component", "email"))
	if err != nil {
		return err
	}

	carts := cart.NewService(gdb, cart.NewRedisCache(cache.GetClient(), cfg.Cart.CacheTTL), evaluator, cfg.Cart.TTL, log.WithField("component", "cart"))
	checkouts := checkout.NewService(checkout.NewGormUnitOfWork(gdb), evaluator, carts, checkout.Options{
		OrdersTopic: cfg.Kafka.OrdersTopic,
		CartTTL:     cfg.Cart.TTL,
		Metrics:     m,
		Logger:      log.WithField("component", "checkout"),
	})
	accounts := user.NewService(gdb, auth.NewPasswordManager(cfg), auth.NewJWTManager(cfg), log.WithField("component", "user"))

	server := httpserver.NewServer(cfg, httpserver.Options{
		Database:    db,
		Cache:       cache,
		RateLimiter: cache.GetClient(),
		Metrics:     m,
		Logger:      log,
		Handlers: &routes.Handlers{
			Auth:          handlers.NewAuthHandler(accounts),
			Users:         handlers.NewUserHandler(user.NewAdminService(gdb, log.WithField("component", "user"))),
			Products:      handlers.NewProductHandler(product.NewService(gdb, log.WithField("component", "product"))),
			Cart:          handlers.NewCartHandler(carts, checkouts),
			Orders:        handlers.NewOrderHandler(order.NewService(gdb, cfg.Kafka.OrdersTopic, log.WithField("component", "order")), checkouts, pdf.NewService(cfg)),
			Reviews:       handlers.NewReviewHandler(review.NewService(gdb, log.WithField("component", "review"))),
			Subscribe:     handlers.NewSubscribeHandler(subscriber.NewService(gdb, mailer, log.WithField("component", "subscriber"))),
			Upload:        handlers.NewUploadHandler(upload.NewService(gdb, cfg, log.WithField("component", "upload"))),
			Authenticator: accounts,
		},
	})

	var wg sync.WaitGroup
	background := func(name string, fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
			log.WithField("worker", name).Info("worker stopped")
		}()
	}

	background("cart-purger", func(ctx context.Context) { purgeLoop(ctx, cfg, carts, m, log) })

	if bus := kafka.NewClient(cfg); bus.Enabled() {
		writer := bus.NewWriter()
		defer writer.Close()
		relay := outbox.NewRelay(outbox.NewStore(gdb), writer, cfg.Kafka.RelayInterval, cfg.Kafka.RelayBatch, m, log.WithField("component", "outbox"))
		background("outbox-relay", relay.Run)

		reader := bus.NewReader(cfg.Kafka.OrdersTopic, cfg.Kafka.ConsumerGroup)
		defer reader.Close()
		consumer := notification.NewConsumer(reader, order.NewStore(gdb), mailer,
			notification.NewRedisDeduper(cache.GetClient(), 0), log.WithField("component", "notification"))
		background("notification-consumer", consumer.Run)
	} else {
		log.Warn("KAFKA_BROKERS is empty; order events stay in the outbox")
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case err = <-serveErr:
		stop()
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if stopErr := server.Stop(shutdownCtx); stopErr != nil {
		log.WithError(stopErr).Error("failed to shut down HTTP server gracefully")
	}

	wg.Wait()
	log.Info("server shutdown completed")
	return err
}

// purgeLoop reclaims expired carts every Cart.PurgeInterval.
func purgeLoop(ctx context.Context, cfg *config.Config, carts *cart.Service, m *metrics.Metrics, log logrus.FieldLogger) {
	if cfg.Cart.PurgeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.Cart.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := carts.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("cart purge failed")
				continue
			}
			m.CartsPurged.Add(float64(n))
		}
	}
}
