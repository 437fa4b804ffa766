package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv   string
	Port     int
	LogLevel string

	DatabaseURL string
	DBMaxConns  int32

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// AMQPURL is optional; events stay in-process when empty.
	AMQPURL string

	CORSOrigins    []string
	ServiceDueDays int
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads .env.<APP_ENV> and .env when present, then the process environment.
// Variables already set in the environment win over file values.
func Load() (*Config, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}
	for _, file := range []string{".env." + appEnv, ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := envReader{getenv: getenv}

	cfg := &Config{
		AppEnv:   e.str("APP_ENV", "development"),
		Port:     e.int("PORT", 8080),
		LogLevel: e.str("LOG_LEVEL", "info"),

		DatabaseURL: getenv("DATABASE_URL"),
		DBMaxConns:  int32(e.int("DB_MAX_CONNS", 0)),

		JWTSecret:       getenv("JWT_SECRET"),
		AccessTokenTTL:  e.duration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: e.duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		RedisAddr:     e.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		RedisDB:       e.int("REDIS_DB", 0),

		MinioEndpoint:  e.str("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: e.str("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: e.str("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    e.str("MINIO_BUCKET", "forklift-documents"),
		MinioUseSSL:    e.bool("MINIO_USE_SSL"),

		AMQPURL: getenv("AMQP_URL"),

		CORSOrigins:    e.list("CORS_ORIGINS", []string{"*"}),
		ServiceDueDays: e.int("SERVICE_DUE_DAYS", 7),
	}

	if e.err != nil {
		return nil, e.err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("JWT_SECRET environment variable is required outside development")
		}
		cfg.JWTSecret = random.String(32)
		log.Warn().Msg("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}
	return cfg, nil
}

// envReader records the first malformed value it sees.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return n
}

func (e *envReader) bool(key string) bool {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v)
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.fail(key, v)
		return def
	}
	return d
}

func (e *envReader) list(key string, def []string) []string {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *envReader) fail(key, value string) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid value %q for %s", value, key)
	}
}
