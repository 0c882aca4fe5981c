package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/recipher/administrato-notify/internal/provider"
	"github.com/recipher/administrato-notify/internal/queue"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig       `mapstructure:"api"`
	Database DatabaseConfig  `mapstructure:"database"`
	Queue    queue.Config    `mapstructure:"queue"`
	Provider provider.Config `mapstructure:"provider"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Notify   NotifyConfig    `mapstructure:"notify"`
}

// APIConfig holds REST API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// AuthConfig holds JWT validation configuration for the API.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // stdout (default) or file
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// NotifyConfig tunes the notification pipeline.
type NotifyConfig struct {
	// SyncConcurrency bounds parallel recipient profile upserts.
	SyncConcurrency int `mapstructure:"sync_concurrency"`
	// EventConcurrency bounds parallel event processing within a batch.
	EventConcurrency int `mapstructure:"event_concurrency"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix NOTIFY_ override file values.
// For example, NOTIFY_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers fallback values so a minimal config file still
// yields a runnable configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", 15*time.Second)
	v.SetDefault("api.write_timeout", 15*time.Second)

	v.SetDefault("database.pool_min", 2)
	v.SetDefault("database.pool_max", 10)
	v.SetDefault("database.connect_timeout", 10*time.Second)

	qd := queue.DefaultConfig()
	v.SetDefault("queue.type", "redis")
	v.SetDefault("queue.stream", qd.Stream)
	v.SetDefault("queue.group", qd.Group)
	v.SetDefault("queue.redis_addr", qd.RedisAddr)
	v.SetDefault("queue.batch_size", qd.BatchSize)
	v.SetDefault("queue.worker_count", qd.WorkerCount)
	v.SetDefault("queue.block_timeout", qd.BlockTimeout)
	v.SetDefault("queue.process_timeout", qd.ProcessTimeout)
	v.SetDefault("queue.shutdown_timeout", qd.ShutdownTimeout)
	v.SetDefault("queue.max_retries", qd.MaxRetries)

	v.SetDefault("provider.type", "courier")
	v.SetDefault("provider.timeout", 30*time.Second)

	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("notify.sync_concurrency", 4)
	v.SetDefault("notify.event_concurrency", 4)
}
