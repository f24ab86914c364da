package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alex-user-go/rateengine/internal/availability"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// AppConfig holds process-level settings.
type AppConfig struct {
	Env             string        `yaml:"env"`
	Addr            string        `yaml:"addr"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// InventoryConfig addresses the upstream inventory system.
type InventoryConfig struct {
	BaseURL           string        `yaml:"base_url"`
	AgentID           string        `yaml:"-"` // Loaded from environment
	Password          string        `yaml:"-"` // Loaded from environment
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// CacheConfig selects the credential cache backend.
type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPassword string        `yaml:"-"` // Loaded from environment
	Prefix        string        `yaml:"prefix"`
	CredentialTTL time.Duration `yaml:"credential_ttl"`
}

// RateLimitConfig bounds inbound requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// BatchConfig bounds batch resolution fan-out.
type BatchConfig struct {
	MaxInFlight int `yaml:"max_in_flight"`
	MaxRequests int `yaml:"max_requests"`
}

// Config is the service configuration.
type Config struct {
	App         AppConfig                     `yaml:"app"`
	Inventory   InventoryConfig               `yaml:"inventory"`
	CustomRates availability.CustomRateConfig `yaml:"custom_rates"`
	Cache       CacheConfig                   `yaml:"cache"`
	RateLimit   RateLimitConfig               `yaml:"rate_limit"`
	Batch       BatchConfig                   `yaml:"batch"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	return Config{
		App: AppConfig{
			Env:             "dev",
			Addr:            ":8080",
			LogLevel:        "info",
			ShutdownTimeout: 10 * time.Second,
		},
		Inventory: InventoryConfig{
			BaseURL:           "http://localhost:9001",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
		},
		CustomRates: availability.CustomRateConfig{
			ExtendedBookingYears: availability.DefaultExtendedBookingYears,
		},
		Cache: CacheConfig{
			Backend:       CacheMemory,
			RedisAddr:     "localhost:6379",
			Prefix:        "rateengine",
			CredentialTTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
		Batch: BatchConfig{
			MaxInFlight: availability.DefaultBatchLimit,
			MaxRequests: 100,
		},
	}
}

// Load loads .env beside configPath, the YAML file if present, then environment overrides.
// An empty configPath skips the file.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		envPath := filepath.Join(filepath.Dir(configPath), ".env")
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}

		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("error parsing config file: %w", err)
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Addr = getEnv("HTTP_ADDR", cfg.App.Addr)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.App.CORSOrigins = splitList(origins)
	}

	cfg.Inventory.BaseURL = getEnv("INVENTORY_BASE_URL", cfg.Inventory.BaseURL)
	cfg.Inventory.AgentID = os.Getenv("INVENTORY_AGENT_ID")
	cfg.Inventory.Password = os.Getenv("INVENTORY_AGENT_PASSWORD")

	cfg.Cache.Backend = strings.ToLower(getEnv("CACHE_BACKEND", cfg.Cache.Backend))
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = os.Getenv("REDIS_PASSWORD")

	var err error
	if cfg.App.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", cfg.App.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.Inventory.Timeout, err = parseDurationEnv("INVENTORY_TIMEOUT", cfg.Inventory.Timeout); err != nil {
		return err
	}
	if cfg.Inventory.RequestsPerSecond, err = parseFloatEnv("INVENTORY_RPS", cfg.Inventory.RequestsPerSecond); err != nil {
		return err
	}
	if cfg.Inventory.Burst, err = parseIntEnv("INVENTORY_BURST", cfg.Inventory.Burst); err != nil {
		return err
	}
	if cfg.CustomRates.Enabled, err = parseBoolEnv("CUSTOM_RATES_ENABLED", cfg.CustomRates.Enabled); err != nil {
		return err
	}
	if cfg.CustomRates.MarkupPercentage, err = parseFloatEnv("CUSTOM_RATES_MARKUP", cfg.CustomRates.MarkupPercentage); err != nil {
		return err
	}
	if cfg.CustomRates.ExtendedBookingYears, err = parseIntEnv("CUSTOM_RATES_EXTENDED_YEARS", cfg.CustomRates.ExtendedBookingYears); err != nil {
		return err
	}
	if cfg.CustomRates.UseLastYearRate, err = parseBoolEnv("CUSTOM_RATES_USE_LAST_YEAR", cfg.CustomRates.UseLastYearRate); err != nil {
		return err
	}
	if cfg.Cache.RedisDB, err = parseIntEnv("REDIS_DB", cfg.Cache.RedisDB); err != nil {
		return err
	}
	if cfg.Cache.CredentialTTL, err = parseDurationEnv("CREDENTIAL_TTL", cfg.Cache.CredentialTTL); err != nil {
		return err
	}
	if cfg.RateLimit.Requests, err = parseIntEnv("RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests); err != nil {
		return err
	}
	if cfg.RateLimit.Window, err = parseDurationEnv("RATE_LIMIT_WINDOW", cfg.RateLimit.Window); err != nil {
		return err
	}
	if cfg.Batch.MaxInFlight, err = parseIntEnv("BATCH_MAX_IN_FLIGHT", cfg.Batch.MaxInFlight); err != nil {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.App.Addr == "" {
		return errors.New("app addr is required")
	}
	if c.Inventory.BaseURL == "" {
		return errors.New("inventory base url is required")
	}
	if c.Inventory.Timeout <= 0 {
		return errors.New("inventory timeout must be positive")
	}
	if c.Inventory.RequestsPerSecond < 0 {
		return errors.New("inventory requests per second must not be negative")
	}
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("redis addr is required for redis cache")
		}
	default:
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.CredentialTTL <= 0 {
		return errors.New("credential ttl must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit requests and window must be positive")
	}
	if c.Batch.MaxInFlight <= 0 {
		return errors.New("batch max in flight must be positive")
	}
	if c.Batch.MaxRequests <= 0 {
		return errors.New("batch max requests must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return f, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
