package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/marketplace-backend/internal/data/db"
	"github.com/yungbote/marketplace-backend/internal/events"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
	"github.com/yungbote/marketplace-backend/internal/platform/envutil"
)

// Config is loaded from defaults, then the optional CONFIG_FILE (yaml), then
// the environment. Later sources win.
type Config struct {
	LogMode     string `yaml:"log_mode"`
	Environment string `yaml:"environment"`
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`

	HTTPAddr         string   `yaml:"http_addr"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`

	DB        DatabaseConfig  `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Aggregate AggregateConfig `yaml:"aggregate"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SQLitePath string `yaml:"sqlite_path"`
}

func (c DatabaseConfig) dbConfig() db.Config {
	return db.Config{
		Driver:     c.Driver,
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		Name:       c.Name,
		SQLitePath: c.SQLitePath,
	}
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type OutboxConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type AggregateConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

func defaultConfig() Config {
	return Config{
		LogMode:     "development",
		Environment: "local",
		ServiceName: "marketplace",
		HTTPAddr:    ":8080",
		DB: DatabaseConfig{
			Driver:     db.DriverPostgres,
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Name:       "marketplace",
			SQLitePath: "marketplace.db",
		},
		Redis: RedisConfig{Channel: events.DefaultChannel},
		Outbox: OutboxConfig{
			Enabled:      true,
			PollInterval: 2 * time.Second,
			BatchSize:    100,
			MaxAttempts:  10,
		},
		Metrics:   MetricsConfig{Addr: ":9090"},
		Aggregate: AggregateConfig{MaxAttempts: 3},
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	cfg.overlayEnv()
	return cfg, cfg.validate()
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.Environment = envutil.String("APP_ENV", c.Environment)
	c.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.ServiceName)
	c.Version = envutil.String("APP_VERSION", c.Version)
	c.HTTPAddr = envutil.String("HTTP_ADDR", c.HTTPAddr)
	c.CORSAllowOrigins = envutil.List("CORS_ALLOW_ORIGINS", c.CORSAllowOrigins)

	c.DB.Driver = envutil.String("DB_DRIVER", c.DB.Driver)
	c.DB.Host = envutil.String("POSTGRES_HOST", c.DB.Host)
	c.DB.Port = envutil.String("POSTGRES_PORT", c.DB.Port)
	c.DB.User = envutil.String("POSTGRES_USER", c.DB.User)
	c.DB.Password = envutil.String("POSTGRES_PASSWORD", c.DB.Password)
	c.DB.Name = envutil.String("POSTGRES_NAME", c.DB.Name)
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Channel = envutil.String("REDIS_CHANNEL", c.Redis.Channel)

	c.Outbox.Enabled = envutil.Bool("OUTBOX_ENABLED", c.Outbox.Enabled)
	c.Outbox.PollInterval = envutil.Duration("OUTBOX_POLL_INTERVAL", c.Outbox.PollInterval)
	c.Outbox.BatchSize = envutil.Int("OUTBOX_BATCH_SIZE", c.Outbox.BatchSize)
	c.Outbox.MaxAttempts = envutil.Int("OUTBOX_MAX_ATTEMPTS", c.Outbox.MaxAttempts)

	c.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Addr = envutil.String("METRICS_ADDR", c.Metrics.Addr)

	c.Aggregate.MaxAttempts = envutil.Int("AGGREGATE_MAX_ATTEMPTS", c.Aggregate.MaxAttempts)
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver)
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be > 0 (got %d)", c.Outbox.BatchSize)
	}
	return nil
}
