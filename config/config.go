package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `env:"APP_ENV, default=development"`
	Name        string `env:"APP_NAME, default=barberapp"`
	Version     string `env:"APP_VERSION, default=1.0.0"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`

	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	JWT      JWTConfig
	S3       S3Config
	Booking  BookingConfig
	Chat     ChatConfig
	Reminder ReminderConfig
	Events   EventsConfig
}

type HTTPConfig struct {
	Port         string        `env:"HTTP_PORT, default=8080"`
	BasePath     string        `env:"HTTP_BASE_PATH, default=/api"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT, default=10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT, default=10s"`
	MaxHeaderMB  int           `env:"HTTP_MAX_HEADER_MB, default=1"`
}

type PostgresConfig struct {
	Host               string        `env:"POSTGRES_HOST, default=localhost"`
	Port               string        `env:"POSTGRES_PORT, default=5432"`
	Username           string        `env:"POSTGRES_USER, default=postgres"`
	Password           string        `env:"POSTGRES_PASSWORD, default=postgres"`
	DBName             string        `env:"POSTGRES_DB, default=barberapp"`
	SSLMode            string        `env:"POSTGRES_SSL_MODE, default=disable"`
	MaxConnections     int           `env:"POSTGRES_MAX_CONNECTIONS, default=10"`
	MaxIdleConnections int           `env:"POSTGRES_MAX_IDLE_CONNECTIONS, default=2"`
	MaxLifetime        time.Duration `env:"POSTGRES_MAX_LIFETIME, default=5m"`
	MigrationsDir      string        `env:"POSTGRES_MIGRATIONS_DIR, default=./migrations"`
}

type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED, default=false"`
	Addr     string        `env:"REDIS_ADDR, default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB, default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT, default=5s"`
	Channel  string        `env:"REDIS_EVENTS_CHANNEL, default=barberapp.events"`
}

type JWTConfig struct {
	SigningKey string `env:"JWT_SIGNING_KEY, default=your_secret_key"`
	Issuer     string `env:"JWT_ISSUER"`
}

type S3Config struct {
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION, default=us-east-1"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	Bucket          string `env:"S3_BUCKET, default=barberapp"`
	UseSSL          bool   `env:"S3_USE_SSL, default=true"`
	PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
}

// BookingConfig holds the reservation policy knobs.
type BookingConfig struct {
	InitialStatus          string        `env:"BOOKING_INITIAL_STATUS, default=pending"`
	MinLeadTime            time.Duration `env:"BOOKING_MIN_LEAD_TIME, default=0s"`
	LockTimeout            time.Duration `env:"BOOKING_LOCK_TIMEOUT, default=3s"`
	DefaultServiceDuration int           `env:"BOOKING_DEFAULT_SERVICE_DURATION, default=30"`
	Timezone               string        `env:"SCHEDULE_TIMEZONE, default=UTC"`
	RetryAttempts          int           `env:"BOOKING_RETRY_ATTEMPTS, default=3"`
	RetryBaseDelay         time.Duration `env:"BOOKING_RETRY_BASE_DELAY, default=50ms"`
	MaxNotesLength         int           `env:"BOOKING_MAX_NOTES_LENGTH, default=500"`
}

type ChatConfig struct {
	MaxMessageLength int `env:"CHAT_MAX_MESSAGE_LENGTH, default=2000"`
	PageSize         int `env:"CHAT_PAGE_SIZE, default=500"`
}

type ReminderConfig struct {
	Enabled   bool          `env:"REMINDER_ENABLED, default=true"`
	Spec      string        `env:"REMINDER_CRON, default=@every 5m"`
	Lookahead time.Duration `env:"REMINDER_LOOKAHEAD, default=1h"`
}

type EventsConfig struct {
	QueueSize int `env:"EVENTS_QUEUE_SIZE, default=100"`
}

// NewConfig loads .env (when present) and then the process environment.
func NewConfig(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Booking.InitialStatus {
	case "pending", "confirmed":
	default:
		return fmt.Errorf("BOOKING_INITIAL_STATUS must be pending or confirmed, got %q", c.Booking.InitialStatus)
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
	}

	if c.Booking.LockTimeout <= 0 {
		return errors.New("BOOKING_LOCK_TIMEOUT must be positive")
	}

	if c.Booking.DefaultServiceDuration <= 0 {
		return errors.New("BOOKING_DEFAULT_SERVICE_DURATION must be positive")
	}

	if c.Booking.MinLeadTime < 0 {
		return errors.New("BOOKING_MIN_LEAD_TIME must not be negative")
	}

	return nil
}

// Location returns the timezone barber working hours are interpreted in.
func (c BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
