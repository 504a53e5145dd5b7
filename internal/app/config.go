package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string        `usage:"PostgreSQL connection URL (POS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL      string        `default:"" usage:"Redis URL for session state; empty keeps sessions in memory" flag:"redis-url"`
	SessionTTL    time.Duration `default:"12h" usage:"Expiry of session state in Redis" flag:"session-ttl"`
	AMQPURL       string        `default:"" usage:"RabbitMQ URL for print jobs; empty logs jobs instead" flag:"amqp-url"`
	PrintExchange string        `default:"pos.print" usage:"Topic exchange receiving print jobs" flag:"print-exchange"`
	Restaurant    string        `default:"Restaurant" usage:"Name printed on receipts"`
	Timezone      string        `default:"Local" usage:"IANA time zone defining business days"`
	Channels      ChannelsConfig
	Auth          AuthConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// ChannelsConfig lists the order channels of the restaurant.
type ChannelsConfig struct {
	Tables   int      `default:"12" usage:"Number of tables, identified 1..N"`
	Counter  []string `default:"counter" usage:"Counter channel identifiers"`
	Delivery []string `default:"delivery" usage:"Delivery channel identifiers"`
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool   `default:"true" usage:"Require X-API-Key on API requests" flag:"auth-enabled"`
	Pepper  string `usage:"HMAC pepper for API key hashing (POS_AUTH_PEPPER)" flag:"auth-pepper"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/pos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set POS_DATABASE_URL or DATABASE_URL")
	}
	if c.Auth.Enabled && c.Auth.Pepper == "" {
		return errors.New("auth pepper is required when auth is enabled: set POS_AUTH_PEPPER")
	}
	if c.Channels.Tables < 0 {
		return errors.Errorf("invalid table count %d", c.Channels.Tables)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.Timezone)
	}
	return loc, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's POS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
