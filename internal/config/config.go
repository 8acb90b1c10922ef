// Package config loads the server configuration.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. a .env file (ENV_FILE, default ".env"), copied into the process
//     environment without overwriting variables that are already set
//  3. a TOML file (CONFIG_FILE, default "configs/config.toml")
//  4. environment variables
//
// Missing .env and TOML files are not errors.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Database DatabaseConfig `toml:"database"`
	Session  SessionConfig  `toml:"session"`
	Auth     AuthConfig     `toml:"auth"`
	Redis    RedisConfig    `toml:"redis"`
	Log      LogConfig      `toml:"log"`
}

type AppConfig struct {
	Name string `toml:"name"`
	Env  string `toml:"env"`
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig selects the SQL backend. For sqlite the DSN is a file path
// (or ":memory:"); for postgres it is a lib/pq connection string or URL.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// SessionConfig controls the signed session cookie. An empty Secret makes the
// server generate a random one at startup.
type SessionConfig struct {
	Secret       string `toml:"secret"`
	CookieName   string `toml:"cookie_name"`
	TTLMinutes   int    `toml:"ttl_minutes"`
	CookieSecure bool   `toml:"cookie_secure"`
}

type AuthConfig struct {
	Admins     []string `toml:"admins"`
	BcryptCost int      `toml:"bcrypt_cost"`

	// Used only by cmd/seedadmin.
	SeedUsername string `toml:"seed_username"`
	SeedPassword string `toml:"seed_password"`
}

// RedisConfig enables session revocation when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load builds the configuration from all sources and validates it.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
	}

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("config: decoding %s: %w", configPath, err)
		}
	}

	overrideByEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "video-catalog",
			Env:  "dev",
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "data/catalog.db",
		},
		Session: SessionConfig{
			CookieName: "session",
			TTLMinutes: 7 * 24 * 60,
		},
		Auth: AuthConfig{
			Admins:     []string{"admin@kishorelytics.com"},
			BcryptCost: 12,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("PORT", cfg.App.Port)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	if cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = getEnv("DB_PATH", cfg.Database.DSN)
	}

	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)
	cfg.Session.TTLMinutes = getEnvAsInt("SESSION_TTL_MINUTES", cfg.Session.TTLMinutes)
	cfg.Session.CookieSecure = getEnvAsBool("SESSION_COOKIE_SECURE", cfg.Session.CookieSecure)

	if raw, ok := os.LookupEnv("ADMIN_USERNAMES"); ok {
		cfg.Auth.Admins = splitList(raw)
	}
	cfg.Auth.BcryptCost = getEnvAsInt("BCRYPT_COST", cfg.Auth.BcryptCost)
	cfg.Auth.SeedUsername = getEnv("ADMIN_USERNAME", cfg.Auth.SeedUsername)
	cfg.Auth.SeedPassword = getEnv("ADMIN_PASSWORD", cfg.Auth.SeedPassword)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.App.Port)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown database driver %q (want %q or %q)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Database.DSN == "" {
		return errors.New("config: database dsn is empty")
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 16 {
		return errors.New("config: session secret must be at least 16 characters")
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("config: session ttl_minutes must be positive, got %d", c.Session.TTLMinutes)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: bcrypt_cost %d out of range 4..31", c.Auth.BcryptCost)
	}
	if len(c.AdminUsernames()) == 0 {
		return errors.New("config: at least one admin username is required")
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// AdminUsernames returns the admin allow-list with blank entries removed.
func (c *Config) AdminUsernames() []string {
	var out []string
	for _, a := range c.Auth.Admins {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// NewLogger builds the process logger described by the log section.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q: %w", c.Level, err)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
