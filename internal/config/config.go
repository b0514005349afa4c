// Package config loads the gateway server's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything `studypod serve` needs.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Judge0    Judge0Config
	Redis     RedisConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig

	// CourseDir holds one sub-directory per course served under
	// /api/courses/{courseID}.
	CourseDir string
	// DBPath is the event store. Empty disables LLM call recording.
	DBPath string
}

type ServerConfig struct {
	Port        int
	Environment string
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

type LoggingConfig struct {
	Level string
}

type Judge0Config struct {
	URL     string
	APIKey  string
	Host    string
	Timeout time.Duration
}

type RedisConfig struct {
	// URL is a redis:// URL. Empty selects the in-process cache.
	URL      string
	CacheTTL time.Duration
	// CacheSize bounds the in-process cache used without Redis.
	CacheSize int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads an optional .env file, then the environment. Every setting
// has a default; only malformed values are errors. Missing credentials
// are reported per request instead.
func Load(envFiles ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		Server: ServerConfig{
			Environment:  env("STUDYPOD_ENV", "development"),
			MaxBodyBytes: 1 << 20,
		},
		Logging: LoggingConfig{Level: env("STUDYPOD_LOG_LEVEL", "info")},
		Judge0: Judge0Config{
			URL:    env("JUDGE0_URL", ""),
			APIKey: env("JUDGE0_API_KEY", ""),
			Host:   env("JUDGE0_HOST", ""),
		},
		Redis:     RedisConfig{URL: env("REDIS_URL", "")},
		CORS:      CORSConfig{AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS", "*"))},
		CourseDir: env("STUDYPOD_COURSE_DIR", "courses"),
		DBPath:    env("STUDYPOD_DB", ""),
	}

	var err error
	if cfg.Server.Port, err = intEnv("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Requests, err = intEnv("RATE_LIMIT_REQUESTS", 60); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Window, err = durationEnv("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.Redis.CacheTTL, err = durationEnv("RUN_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Redis.CacheSize, err = intEnv("RUN_CACHE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.Judge0.Timeout, err = durationEnv("JUDGE0_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// IsProduction selects the production logger and hides internal error text.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
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
