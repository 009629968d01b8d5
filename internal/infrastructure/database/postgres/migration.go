// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/review"
	"github.com/your-org/storefront-backend/internal/domain/subscriber"
	"github.com/your-org/storefront-backend/internal/domain/upload"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every table in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
		&review.Review{},
		&subscriber.Subscriber{},
		&upload.UploadedFile{},
		&outbox.Event{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations(ctx context.Context) error {
	m.logger.Info("running database auto-migrations")

	db := m.db.WithContext(ctx)
	for _, model := range Models() {
		m.logger.Debugf("migrating model %T", model)
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	if err := db.Exec("CREATE SEQUENCE IF NOT EXISTS " + order.SequenceName + " START 1").Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", order.SequenceName, err)
	}

	m.logger.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite indexes GORM tags cannot express.
// Failures are logged and counted, not returned.
func (m *Migration) CreateIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_owner_created ON products(owner_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_official_created ON products(is_official, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products(LOWER(name))",

		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_position ON cart_items(cart_id, position)",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_position ON order_items(order_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",

		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_outbox_events_pending ON outbox_events(id) WHERE sent_at IS NULL",
	}

	db := m.db.WithContext(ctx)
	failed := 0
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			m.logger.WithError(err).WithField("sql", stmt).Warn("failed to create index")
			failed++
		}
	}

	m.logger.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("additional indexes processed")
	return nil
}

// SeedOptions names the bootstrap admin account
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	Passwords     *auth.PasswordManager
}

// SeedInitialData creates the admin account and a starter catalog. It is
// safe to run more than once.
func (m *Migration) SeedInitialData(ctx context.Context, opts SeedOptions) error {
	m.logger.Info("seeding initial data")

	admin, err := m.seedAdminUser(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedProducts(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.logger.Info("initial data seeded")
	return nil
}

func (m *Migration) seedAdminUser(ctx context.Context, opts SeedOptions) (*user.User, error) {
	db := m.db.WithContext(ctx)
	email := user.NormalizeEmail(opts.AdminEmail)

	var existing user.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		m.logger.WithField("user_id", existing.ID).Info("admin user already exists")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := opts.Passwords.HashPassword(opts.AdminPassword)
	if err != nil {
		return nil, err
	}
	admin := &user.User{
		Name:     "Admin",
		Email:    email,
		Password: hash,
		Role:     auth.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(admin).Error; err != nil {
		return nil, err
	}

	m.logger.WithField("email", email).Info("created admin user")
	return admin, nil
}

func (m *Migration) seedProducts(ctx context.Context, admin *user.User) error {
	db := m.db.WithContext(ctx)

	var count int64
	if err := db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.logger.WithField("count", count).Info("products already exist")
		return nil
	}

	products := []product.Product{
		{
			Name:        "Yerba Mate 1kg",
			Description: "Traditional yerba mate with stems, slow aged.",
			Price:       4500,
			Stock:       120,
			Category:    "food",
			Images:      pq.StringArray{"/uploads/products/yerba-mate.jpg"},
		},
		{
			Name:        "Calabaza Mate Gourd",
			Description: "Hand-cured gourd with an alpaca silver rim.",
			Price:       12900,
			Stock:       30,
			Category:    "accessories",
			Images:      pq.StringArray{"/uploads/products/gourd.jpg"},
		},
		{
			Name:        "Bombilla Stainless",
			Description: "Stainless steel straw with a spring filter.",
			Price:       3200,
			Stock:       75,
			Category:    "accessories",
			Images:      pq.StringArray{"/uploads/products/bombilla.jpg"},
		},
		{
			Name:        "Thermos 1L",
			Description: "Double-wall steel thermos with a pouring spout.",
			Price:       28000,
			Stock:       15,
			Category:    "accessories",
			Images:      pq.StringArray{"/uploads/products/thermos.jpg"},
		},
	}

	for i := range products {
		products[i].OwnerID = &admin.ID
		products[i].OwnerName = admin.Name
		products[i].IsOfficial = true
		products[i].IsActive = true
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	m.logger.WithField("count", len(products)).Info("created sample products")
	return nil
}
