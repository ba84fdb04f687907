package utils

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	JWTIssuer  string        `mapstructure:"jwt_issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type ScraperConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	MaxPages    int           `mapstructure:"max_pages"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	Delay       time.Duration `mapstructure:"delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	Workers     int           `mapstructure:"workers"`
}

// WarehouseConfig points at the optional Postgres mirror. Empty DSN disables it.
type WarehouseConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// Load reads configuration from the optional file at path, then BOOKHUB_*
// environment variables, falling back to defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.path", defaultDBPath())

	// dev default (change for demo / production)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.jwt_issuer", "bookhub")
	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_ttl", 24*time.Hour)

	v.SetDefault("scraper.base_url", "https://books.toscrape.com/")
	v.SetDefault("scraper.max_pages", 50)
	v.SetDefault("scraper.max_attempts", 3)
	v.SetDefault("scraper.backoff_base", time.Second)
	v.SetDefault("scraper.delay", 300*time.Millisecond)
	v.SetDefault("scraper.timeout", 15*time.Second)
	v.SetDefault("scraper.user_agent", defaultUserAgent)
	v.SetDefault("scraper.workers", 1)

	v.SetDefault("warehouse.dsn", "")
	v.SetDefault("warehouse.table", "books")

	v.SetDefault("logging.development", true)
}

// local default: ~/.bookhub/books.db
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".bookhub", "books.db")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must be set")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must be set")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("auth token ttls must be > 0")
	}

	u, err := url.Parse(c.Scraper.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid scraper.base_url: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("scraper.base_url must include a host")
	}
	if c.Scraper.MaxPages <= 0 {
		return fmt.Errorf("scraper.max_pages must be > 0")
	}
	if c.Scraper.MaxAttempts <= 0 {
		return fmt.Errorf("scraper.max_attempts must be > 0")
	}
	if c.Scraper.BackoffBase < 0 || c.Scraper.Delay < 0 {
		return fmt.Errorf("scraper delays cannot be negative")
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be > 0")
	}
	if c.Scraper.UserAgent == "" {
		return fmt.Errorf("scraper.user_agent must be set")
	}
	if c.Scraper.Workers <= 0 {
		return fmt.Errorf("scraper.workers must be > 0")
	}
	return nil
}
