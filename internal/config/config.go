package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"jackpot-alerts/internal/logging"
)

// State backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Threshold ThresholdConfig `mapstructure:"threshold"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Email     EmailConfig     `mapstructure:"email"`
	State     StateConfig     `mapstructure:"state"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SchedulerConfig governs the periodic check cadence. Cron takes precedence over Interval.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	Cron            string        `mapstructure:"cron"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ThresholdConfig keeps the raw override; it is resolved once per run.
type ThresholdConfig struct {
	AmountMillions  string  `mapstructure:"amount_millions"`
	DefaultMillions float64 `mapstructure:"default_millions"`
}

// FeedsConfig groups the two jackpot sources.
type FeedsConfig struct {
	Powerball    FeedConfig `mapstructure:"powerball"`
	MegaMillions FeedConfig `mapstructure:"mega_millions"`
}

// FeedConfig describes one upstream source.
type FeedConfig struct {
	URL               string        `mapstructure:"url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// EmailConfig describes the outbound mail API. Empty addresses disable notifications.
type EmailConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	From    string        `mapstructure:"from"`
	To      string        `mapstructure:"to"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StateConfig selects the state store binding.
type StateConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig encapsulates Redis connectivity.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// HTTPConfig configures the on-demand query server.
type HTTPConfig struct {
	Addr               string        `mapstructure:"addr"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	// .env is optional and never overrides variables already set
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("JACKPOTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "jackpotwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.time_format", "")
	v.SetDefault("logging.caller", false)
	v.SetDefault("logging.pretty", false)

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.cron", "")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x6a61636b))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("threshold.amount_millions", "")
	v.SetDefault("threshold.default_millions", 1500.0)

	v.SetDefault("feeds.powerball.url", "https://www.powerball.com/")
	v.SetDefault("feeds.powerball.user_agent", "jackpotwatch/1.0")
	v.SetDefault("feeds.powerball.timeout", "15s")
	v.SetDefault("feeds.powerball.requests_per_minute", 30)
	v.SetDefault("feeds.mega_millions.url", "https://www.megamillions.com/cmspages/utilservice.asmx/GetLatestDrawData")
	v.SetDefault("feeds.mega_millions.user_agent", "jackpotwatch/1.0")
	v.SetDefault("feeds.mega_millions.timeout", "15s")
	v.SetDefault("feeds.mega_millions.requests_per_minute", 30)

	v.SetDefault("email.enabled", true)
	v.SetDefault("email.api_url", "https://api.mailchannels.net/tx/v1/send")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.to", "")
	v.SetDefault("email.timeout", "10s")

	v.SetDefault("state.backend", BackendMemory)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "jackpotwatch:state:")
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_allowed_origins", []string{"*"})
	v.SetDefault("http.shutdown_timeout", "30s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Cron == "" && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Threshold.DefaultMillions <= 0 {
		return fmt.Errorf("threshold.default_millions must be greater than zero")
	}
	switch c.State.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for state.backend=postgres")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for state.backend=redis")
		}
	default:
		return fmt.Errorf("state.backend %q not supported", c.State.Backend)
	}
	return nil
}
