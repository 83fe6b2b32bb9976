package config

import (
	"errors"
	"fmt"
	"time"

	"mines_wager/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort     string `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"` // empty: in-memory store
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Settlement platform; empty URL disables platform-linked play
	SettlementURL     string        `env:"SETTLEMENT_URL"`
	SettlementAPIKey  string        `env:"SETTLEMENT_API_KEY"`
	SettlementTimeout time.Duration `env:"SETTLEMENT_TIMEOUT" envDefault:"5s"`

	// Game limits
	GuestStartBalance decimal.Decimal `env:"GUEST_START_BALANCE" envDefault:"1000"`
	MinBet            decimal.Decimal `env:"MIN_BET" envDefault:"0.1"`
	MaxBet            decimal.Decimal `env:"MAX_BET" envDefault:"100000"`

	ReportWorkers     int           `env:"REPORT_WORKERS" envDefault:"4"`
	ReportMaxAttempts int           `env:"REPORT_MAX_ATTEMPTS" envDefault:"5"`
	ReportRetryDelay  time.Duration `env:"REPORT_RETRY_DELAY" envDefault:"500ms"`

	// Zero TTL drops guest sessions as soon as their connection closes
	SessionIdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"0s"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`

	APIRateLimit  int           `env:"API_RATE_LIMIT" envDefault:"60"`
	APIRateWindow time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	AllowedOrigin string        `env:"ALLOWED_ORIGIN"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// PlatformEnabled reports whether a settlement platform is configured
func (c *Config) PlatformEnabled() bool {
	return c.SettlementURL != ""
}

// Validate checks cross-field constraints env tags can't express
func (c *Config) Validate() error {
	if !c.MinBet.IsPositive() {
		return errors.New("MIN_BET must be positive")
	}
	if c.MaxBet.LessThan(c.MinBet) {
		return fmt.Errorf("MAX_BET (%s) below MIN_BET (%s)", c.MaxBet, c.MinBet)
	}
	if c.GuestStartBalance.IsNegative() {
		return errors.New("GUEST_START_BALANCE must not be negative")
	}
	if c.SettlementTimeout <= 0 {
		return errors.New("SETTLEMENT_TIMEOUT must be positive")
	}
	if c.ReportWorkers < 1 {
		return errors.New("REPORT_WORKERS must be at least 1")
	}
	if c.ReportMaxAttempts < 1 {
		return errors.New("REPORT_MAX_ATTEMPTS must be at least 1")
	}
	if c.SessionIdleTTL < 0 {
		return errors.New("SESSION_IDLE_TTL must not be negative")
	}
	if c.SessionSweepInterval <= 0 {
		return errors.New("SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// Parse reads the environment (and .env if present) into a Config
func Parse() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is Parse that exits the process on a bad configuration
func Load() *Config {
	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}
