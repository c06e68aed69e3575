package common

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Paths   PathsConfig   `envconfig:"PATHS"`
	Extract ExtractConfig `envconfig:"EXTRACT"`
	PDF     PDFConfig     `envconfig:"PDF"`
	Ledger  LedgerConfig  `envconfig:"LEDGER"`
	Pricing PricingConfig `envconfig:"PRICING"`
	Log     LogConfig     `envconfig:"LOG"`
	Metrics MetricsConfig `envconfig:"METRICS"`
	Watch   WatchConfig   `envconfig:"WATCH"`
}

// PathsConfig holds the input directory and the order summary workbook.
type PathsConfig struct {
	DocumentDir string `envconfig:"DOCUMENT_DIR" default:"./pdf" validate:"required"`
	StorePath   string `envconfig:"STORE_PATH" default:"./订单汇总.xlsx" validate:"required"`
	StoreSheet  string `envconfig:"STORE_SHEET" default:"Sheet1" validate:"required"`
	Recursive   bool   `envconfig:"INGEST_RECURSIVE" default:"false"`
}

// ExtractConfig holds batch extraction behavior
type ExtractConfig struct {
	Workers         int           `envconfig:"WORKERS" default:"1" validate:"gte=1,lte=32"`
	SkipProcessed   bool          `envconfig:"SKIP_PROCESSED" default:"false"`
	DocumentTimeout time.Duration `envconfig:"DOCUMENT_TIMEOUT" default:"2m" validate:"gt=0"`
}

// PDFConfig holds the external text extraction tool
type PDFConfig struct {
	Pdftotext string `envconfig:"PDFTOTEXT" default:"pdftotext" validate:"required"`
}

// LedgerConfig holds database-related configuration.
// An empty DSN disables the ledger.
type LedgerConfig struct {
	DSN             string        `envconfig:"DSN" default:"orders-ledger.db"`
	MaxConns        int32         `envconfig:"MAX_CONNS" default:"4" validate:"gte=1"`
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"30m"`
	DialTimeout     time.Duration `envconfig:"DIAL_TIMEOUT" default:"3s"`
}

// PricingConfig holds the retailer lookup settings
type PricingConfig struct {
	BaseURL  string        `envconfig:"BASE_URL" default:"https://www.ikea.cn/cn/zh" validate:"required,url"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s" validate:"gt=0"`
	MinDelay time.Duration `envconfig:"MIN_DELAY" default:"1s" validate:"gte=0"`
	MaxDelay time.Duration `envconfig:"MAX_DELAY" default:"3s" validate:"gtefield=MinDelay"`
	// RedisAddr enables a price cache shared between runs; empty disables it.
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"12h" validate:"gt=0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

// MetricsConfig holds the optional prometheus textfile target and, in
// watch mode, the optional listen address for /metrics and /healthz.
type MetricsConfig struct {
	Textfile string `envconfig:"TEXTFILE"`
	Addr     string `envconfig:"ADDR" validate:"omitempty,hostname_port"`
}

// WatchConfig keeps the batch running and processes documents as they
// arrive in the document directory.
type WatchConfig struct {
	Enabled  bool          `envconfig:"ENABLED" default:"false"`
	Debounce time.Duration `envconfig:"DEBOUNCE" default:"2s" validate:"gt=0"`
}

// LoadConfig loads configuration from environment variables.
// Keys are looked up with their section prefix first (LEDGER_DSN) and then bare (DSN).
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "failed to read environment", err)
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return NewAppError("CONFIG_ERROR", strings.Join(msgs, "; "), ErrInvalidInput)
		}
		return NewAppError("CONFIG_ERROR", "invalid configuration", err)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
