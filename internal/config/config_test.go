package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 30*24*time.Hour, cfg.Cart.TTL)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxSize)
	assert.False(t, cfg.KafkaEnabled())
	assert.Contains(t, cfg.Checkout.Coupons, "DESCUENTO10")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("k", 40))
	t.Setenv("APP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CART_TTL", "48h")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 48*time.Hour, cfg.Cart.TTL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Host: "db", Name: "store", User: "store"},
			Redis:    RedisConfig{Host: "redis"},
			JWT:      JWTConfig{Secret: strings.Repeat("a", 32)},
			Security: SecurityConfig{BcryptCost: 10},
			Cart:     CartConfig{TTL: time.Hour},
		}
	}

	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"short secret":       func(c *Config) { c.JWT.Secret = "short" },
		"missing db host":    func(c *Config) { c.Database.Host = "" },
		"missing redis host": func(c *Config) { c.Redis.Host = "" },
		"bad bcrypt cost":    func(c *Config) { c.Security.BcryptCost = 2 },
		"zero cart ttl":      func(c *Config) { c.Cart.TTL = 0 },
		"smtp without host":  func(c *Config) { c.Email.Provider = "smtp" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", c.GetDatabaseDSN())
}
