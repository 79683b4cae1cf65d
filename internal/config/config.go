package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string   `envconfig:"PORT" default:"8080"`
	Environment string   `envconfig:"ENV" default:"production"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	SiteURL     string   `envconfig:"SITE_URL" default:"http://localhost:8080"`

	// Database settings. DATABASE_URL wins over the individual DB_* parts.
	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"journal"`
	DBSSLMode   string `envconfig:"DB_SSL_MODE" default:"disable"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"db.sqlite3"`

	// Prompt scheduling
	TimeZone   string `envconfig:"TIME_ZONE" default:"America/New_York"`
	PromptHour int    `envconfig:"PROMPT_HOUR" default:"9"`

	// Outbound and inbound mail
	SendGridAPIKey       string `envconfig:"SENDGRID_API_KEY"`
	SenderName           string `envconfig:"SENDER_NAME" default:"JourneyInbox Journal"`
	SendingDomain        string `envconfig:"SENDING_DOMAIN" default:"email.journeyinbox.com"`
	ReplyPrefix          string `envconfig:"REPLY_PREFIX" default:"journal"`
	QuoteMarker          string `envconfig:"QUOTE_MARKER" default:"JourneyInbox"`
	NoReplyAddress       string `envconfig:"NOREPLY_ADDRESS" default:"noreply@email.journeyinbox.com"`
	InboundWebhookSecret string `envconfig:"INBOUND_WEBHOOK_SECRET"`

	// Public account identifiers
	HashidSalt      string `envconfig:"HASHID_SALT" required:"true"`
	HashidMinLength int    `envconfig:"HASHID_MIN_LENGTH" default:"7"`

	// Accounts and sessions
	JWTSecret        string        `envconfig:"JWT_SECRET"`
	LoginLinkTTL     time.Duration `envconfig:"LOGIN_LINK_TTL" default:"15m"`
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	MaxTrialingUsers int           `envconfig:"MAX_TRIALING_USERS" default:"50"`

	// Billing
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	// Error reporting
	SentryDSN string `envconfig:"SENTRY_DSN"`

	// Raw inbound payload archive (disabled when ARCHIVE_BUCKET is empty)
	ArchiveBucket    string `envconfig:"ARCHIVE_BUCKET"`
	ArchiveRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
	ArchiveEndpoint  string `envconfig:"ARCHIVE_ENDPOINT"`
	ArchiveAccessKey string `envconfig:"ARCHIVE_ACCESS_KEY"`
	ArchiveSecretKey string `envconfig:"ARCHIVE_SECRET_KEY"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.HashidSalt == "" {
		return nil, fmt.Errorf("HASHID_SALT must not be empty")
	}
	if cfg.PromptHour < 0 || cfg.PromptHour > 23 {
		return nil, fmt.Errorf("PROMPT_HOUR must be between 0 and 23, got %d", cfg.PromptHour)
	}
	return &cfg, nil
}

// Location is the time zone that decides what "today" means for prompts.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// PostgresDSN builds the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// WebhookCredentials splits INBOUND_WEBHOOK_SECRET ("username:password").
func (c *Config) WebhookCredentials() (string, string, error) {
	if c.InboundWebhookSecret == "" {
		return "", "", fmt.Errorf("INBOUND_WEBHOOK_SECRET is not set")
	}
	parts := strings.SplitN(c.InboundWebhookSecret, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("INBOUND_WEBHOOK_SECRET must be in format 'username:password'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Today is the calendar date of now in the configured time zone, as
// midnight UTC.
func (c *Config) Today(now time.Time) (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
