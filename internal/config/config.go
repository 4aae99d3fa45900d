// Package config defines the top-level configuration for the combo trading
// bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by COMBOBOT_* environment
// variables.
type Config struct {
	LedgerX  LedgerXConfig  `toml:"ledgerx"`
	Binance  BinanceConfig  `toml:"binance"`
	Strategy StrategyConfig `toml:"strategy"`
	Feed     FeedConfig     `toml:"feed"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Recorder RecorderConfig `toml:"recorder"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// LedgerXConfig holds the options venue API endpoints and credentials.
type LedgerXConfig struct {
	BaseURL          string `toml:"base_url"`
	WsURL            string `toml:"ws_url"`
	ApiKey           string `toml:"api_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// BinanceConfig holds the spot venue API endpoints and credentials.
type BinanceConfig struct {
	BaseURL   string `toml:"base_url"`
	WsURL     string `toml:"ws_url"`
	ApiKey    string `toml:"api_key"`
	ApiSecret string `toml:"api_secret"`
}

// StrategyConfig holds the parity engine parameters. Rates are fractional
// (0.001 = 10 bps), not bps.
type StrategyConfig struct {
	Symbol         string  `toml:"symbol"`     // spot symbol, e.g. "BTCUSDT"
	Underlying     string  `toml:"underlying"` // options underlying code, e.g. "CBTC"
	BorrowRate     float64 `toml:"borrow_rate"`
	OptionsFeeRate float64 `toml:"options_fee_rate"`
	SpotFeeRate    float64 `toml:"spot_fee_rate"`
	SizeFactor     float64 `toml:"size_factor"`
}

// FeedConfig holds ingestion pipeline parameters.
type FeedConfig struct {
	QueueSize int `toml:"queue_size"`
}

// PostgresConfig holds PostgreSQL connection parameters for the trade
// journal. Leave Enabled false to run without persistence.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the signal bus.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RecorderConfig holds quote archival parameters.
type RecorderConfig struct {
	Enabled       bool     `toml:"enabled"`
	FlushInterval duration `toml:"flush_interval"`
	MaxBatch      int      `toml:"max_batch"`
	Prefix        string   `toml:"prefix"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		LedgerX: LedgerXConfig{
			BaseURL: "https://api.ledgerx.com",
			WsURL:   "wss://api.ledgerx.com/ws",
		},
		Binance: BinanceConfig{
			BaseURL: "https://api.binance.com",
			WsURL:   "wss://stream.binance.com:9443/ws",
		},
		Strategy: StrategyConfig{
			Symbol:         "BTCUSDT",
			Underlying:     "CBTC",
			BorrowRate:     0.02,
			OptionsFeeRate: 0.0,
			SpotFeeRate:    0.0,
			SizeFactor:     0.5,
		},
		Feed: FeedConfig{
			QueueSize: 4096,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "combobot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "combobot-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Recorder: RecorderConfig{
			Enabled:       false,
			FlushInterval: duration{time.Minute},
			MaxBatch:      10000,
			Prefix:        "ticks",
		},
		Notify: NotifyConfig{
			Events: []string{"arb_detected", "trade_dispatched", "error"},
		},
		Mode:     "observe",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade":   true,
	"observe": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, observe)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venue endpoints are required in every mode; the feeds cannot start
	// without them.
	if c.LedgerX.BaseURL == "" {
		errs = append(errs, "ledgerx: base_url must not be empty")
	}
	if c.LedgerX.WsURL == "" {
		errs = append(errs, "ledgerx: ws_url must not be empty")
	}
	if c.Binance.WsURL == "" {
		errs = append(errs, "binance: ws_url must not be empty")
	}

	// Credentials are only needed when orders will actually be placed.
	if strings.ToLower(c.Mode) == "trade" {
		if c.LedgerX.ApiKey == "" && c.LedgerX.EncryptedKeyPath == "" {
			errs = append(errs, "ledgerx: either api_key or encrypted_key_path must be set for mode trade")
		}
		if c.LedgerX.EncryptedKeyPath != "" && c.LedgerX.KeyPassword == "" {
			errs = append(errs, "ledgerx: key_password is required when encrypted_key_path is set")
		}
		if c.Binance.ApiKey == "" || c.Binance.ApiSecret == "" {
			errs = append(errs, "binance: api_key and api_secret are required for mode trade")
		}
	}

	if c.Strategy.Symbol == "" {
		errs = append(errs, "strategy: symbol must not be empty")
	}
	if c.Strategy.Underlying == "" {
		errs = append(errs, "strategy: underlying must not be empty")
	}
	if c.Strategy.BorrowRate < 0 {
		errs = append(errs, "strategy: borrow_rate must be >= 0")
	}
	if c.Strategy.OptionsFeeRate < 0 || c.Strategy.SpotFeeRate < 0 {
		errs = append(errs, "strategy: fee rates must be >= 0")
	}
	if c.Strategy.SizeFactor <= 0 || c.Strategy.SizeFactor > 1 {
		errs = append(errs, fmt.Sprintf("strategy: size_factor must be in (0, 1], got %g", c.Strategy.SizeFactor))
	}

	if c.Feed.QueueSize < 1 {
		errs = append(errs, "feed: queue_size must be >= 1")
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Recorder.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when recorder is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when recorder is enabled")
		}
		if c.Recorder.MaxBatch < 1 {
			errs = append(errs, "recorder: max_batch must be >= 1")
		}
		if c.Recorder.FlushInterval.Duration <= 0 {
			errs = append(errs, "recorder: flush_interval must be > 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
