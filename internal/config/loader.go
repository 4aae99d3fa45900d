package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies COMBOBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known COMBOBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── LedgerX ──
	setStr(&cfg.LedgerX.BaseURL, "COMBOBOT_LEDGERX_BASE_URL")
	setStr(&cfg.LedgerX.WsURL, "COMBOBOT_LEDGERX_WS_URL")
	setStr(&cfg.LedgerX.ApiKey, "COMBOBOT_LEDGERX_API_KEY")
	setStr(&cfg.LedgerX.EncryptedKeyPath, "COMBOBOT_LEDGERX_ENCRYPTED_KEY_PATH")
	setStr(&cfg.LedgerX.KeyPassword, "COMBOBOT_LEDGERX_KEY_PASSWORD")

	// ── Binance ──
	setStr(&cfg.Binance.BaseURL, "COMBOBOT_BINANCE_BASE_URL")
	setStr(&cfg.Binance.WsURL, "COMBOBOT_BINANCE_WS_URL")
	setStr(&cfg.Binance.ApiKey, "COMBOBOT_BINANCE_API_KEY")
	setStr(&cfg.Binance.ApiSecret, "COMBOBOT_BINANCE_API_SECRET")

	// ── Strategy ──
	setStr(&cfg.Strategy.Symbol, "COMBOBOT_STRATEGY_SYMBOL")
	setStr(&cfg.Strategy.Underlying, "COMBOBOT_STRATEGY_UNDERLYING")
	setFloat64(&cfg.Strategy.BorrowRate, "COMBOBOT_STRATEGY_BORROW_RATE")
	setFloat64(&cfg.Strategy.OptionsFeeRate, "COMBOBOT_STRATEGY_OPTIONS_FEE_RATE")
	setFloat64(&cfg.Strategy.SpotFeeRate, "COMBOBOT_STRATEGY_SPOT_FEE_RATE")
	setFloat64(&cfg.Strategy.SizeFactor, "COMBOBOT_STRATEGY_SIZE_FACTOR")

	// ── Feed ──
	setInt(&cfg.Feed.QueueSize, "COMBOBOT_FEED_QUEUE_SIZE")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "COMBOBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "COMBOBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "COMBOBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "COMBOBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "COMBOBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "COMBOBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "COMBOBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "COMBOBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "COMBOBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "COMBOBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "COMBOBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "COMBOBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "COMBOBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COMBOBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COMBOBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "COMBOBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "COMBOBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "COMBOBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "COMBOBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "COMBOBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "COMBOBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "COMBOBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "COMBOBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "COMBOBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "COMBOBOT_S3_FORCE_PATH_STYLE")

	// ── Recorder ──
	setBool(&cfg.Recorder.Enabled, "COMBOBOT_RECORDER_ENABLED")
	setDuration(&cfg.Recorder.FlushInterval, "COMBOBOT_RECORDER_FLUSH_INTERVAL")
	setInt(&cfg.Recorder.MaxBatch, "COMBOBOT_RECORDER_MAX_BATCH")
	setStr(&cfg.Recorder.Prefix, "COMBOBOT_RECORDER_PREFIX")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "COMBOBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "COMBOBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "COMBOBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "COMBOBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "COMBOBOT_MODE")
	setStr(&cfg.LogLevel, "COMBOBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
