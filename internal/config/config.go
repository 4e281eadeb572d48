// Package config loads artsel settings from an optional TOML file and ARTSEL_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/artic-select/pkg/client"
	"github.com/Sternrassler/artic-select/pkg/logging"
	"github.com/Sternrassler/artic-select/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ARTSEL_API_BASE_URL.
const EnvPrefix = "ARTSEL"

// Config holds application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Page     PageConfig     `mapstructure:"page"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Prefetch PrefetchConfig `mapstructure:"prefetch"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig holds collection API settings.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Fields     []string      `mapstructure:"fields"`
	MaxRetries int           `mapstructure:"max_retries"`
	Revalidate bool          `mapstructure:"revalidate"`
}

// PageConfig holds paging settings.
type PageConfig struct {
	Size int `mapstructure:"size"`
}

// RedisConfig holds the optional Redis connection. An empty Addr disables the
// response cache and the shared rate limit.
type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	StaleRetention time.Duration `mapstructure:"stale_retention"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// PrefetchConfig holds page warm-up settings.
type PrefetchConfig struct {
	Pages       int `mapstructure:"pages"`
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and env. path overrides ARTSEL_CONFIG;
// when both are empty an optional ~/.config/artic-select/config.toml is read.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", client.DefaultBaseURL)
	v.SetDefault("api.user_agent", client.DefaultUserAgent)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.fields", client.DefaultFields())
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.revalidate", false)
	v.SetDefault("page.size", session.DefaultPageSize)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stale_retention", "6h")
	v.SetDefault("server.port", 8080)
	v.SetDefault("prefetch.pages", 1)
	v.SetDefault("prefetch.concurrency", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "artic-select"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Page.Size < 1 || c.Page.Size > client.MaxPageSize {
		return fmt.Errorf("page.size must be between 1 and %d (got %d)", client.MaxPageSize, c.Page.Size)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0 (got %d)", c.API.MaxRetries)
	}
	if c.Prefetch.Pages < 0 {
		return fmt.Errorf("prefetch.pages must be >= 0 (got %d)", c.Prefetch.Pages)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port (got %d)", c.Server.Port)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Logging converts the log settings for logging.Setup.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	// Validate has accepted the level
	cfg.Level, _ = logging.ParseLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	cfg.File = c.Log.File
	return cfg
}

// NewRedis returns a client for the configured Redis, or nil when none is set.
func (c Config) NewRedis() *redis.Client {
	if c.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// Client builds the collection client configuration. redisClient may be nil.
func (c Config) Client(redisClient *redis.Client) client.Config {
	cfg := client.DefaultConfig(redisClient, c.API.UserAgent)
	cfg.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	cfg.Timeout = c.API.Timeout
	cfg.Fields = c.API.Fields
	cfg.MaxRetries = c.API.MaxRetries
	cfg.Revalidate = c.API.Revalidate
	cfg.StaleRetention = c.Redis.StaleRetention
	return cfg
}
