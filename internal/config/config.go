package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Media     MediaConfig
	Midtrans  MidtransConfig
	Limits    LimitsConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	// Env selects the invitations table and the media path prefix.
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type StoreConfig struct {
	Driver string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	ShareSecret string
	ShareTTL    time.Duration
}

type MediaConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	// PublicURL is the CDN base that serves uploaded objects.
	PublicURL string
}

type MidtransConfig struct {
	ServerKey string
	BaseURL   string
	Timeout   time.Duration
}

type LimitsConfig struct {
	GuestBase        int
	EventMaxHorizon  int
	CommentRate      int
	CommentWindow    time.Duration
	CacheTTL         time.Duration
	IdempotencyTTL   time.Duration
	RequestBodyLimit int64
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")
	switch env {
	case "development", "staging", "production":
	default:
		return nil, fmt.Errorf("%s: invalid APP_ENV %q", op, env)
	}

	serverPort, err := getInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	driver := getEnv("STORE_DRIVER", DriverPostgres)
	if driver != DriverPostgres && driver != DriverMemory {
		return nil, fmt.Errorf("%s: invalid STORE_DRIVER %q", op, driver)
	}

	postgresCfg, err := postgresConfig(driver == DriverPostgres)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("%s: missing JWT_SECRET", op)
	}

	shareSecret := os.Getenv("SHARE_SECRET")
	if shareSecret == "" {
		return nil, fmt.Errorf("%s: missing SHARE_SECRET", op)
	}

	shareTTL, err := getDuration("SHARE_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	midtransTimeout, err := getDuration("MIDTRANS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limits, err := limitsConfig()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		App: AppConfig{
			Env:      env,
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "localhost"),
			Port:           serverPort,
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Store:    StoreConfig{Driver: driver},
		Postgres: postgresCfg,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6380"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:   jwtSecret,
			JWTIssuer:   os.Getenv("JWT_ISSUER"),
			ShareSecret: shareSecret,
			ShareTTL:    shareTTL,
		},
		Media: MediaConfig{
			Bucket:    getEnv("S3_BUCKET", "wedgo-media"),
			Endpoint:  os.Getenv("S3_ENDPOINT_URL"),
			Region:    getEnv("S3_REGION", "auto"),
			AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicURL: strings.TrimRight(os.Getenv("MEDIA_PUBLIC_URL"), "/"),
		},
		Midtrans: MidtransConfig{
			ServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
			BaseURL:   getEnv("MIDTRANS_BASE_URL", "https://app.sandbox.midtrans.com"),
			Timeout:   midtransTimeout,
		},
		Limits: limits,
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "wedgo"),
		},
	}, nil
}

func postgresConfig(required bool) (PostgresConfig, error) {
	port, err := getInt("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	maxConns, err := getInt("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return PostgresConfig{}, err
	}

	cfg := PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
	}

	if !required {
		return cfg, nil
	}

	switch {
	case cfg.User == "":
		return cfg, fmt.Errorf("missing POSTGRES_USER")
	case cfg.Password == "":
		return cfg, fmt.Errorf("missing POSTGRES_PASSWORD")
	case cfg.Name == "":
		return cfg, fmt.Errorf("missing POSTGRES_DB")
	}

	return cfg, nil
}

func limitsConfig() (LimitsConfig, error) {
	var (
		l   LimitsConfig
		err error
	)

	if l.GuestBase, err = getInt("GUEST_BASE_QUOTA", 20); err != nil {
		return l, err
	}
	if l.EventMaxHorizon, err = getInt("EVENT_MAX_HORIZON", 730); err != nil {
		return l, err
	}
	if l.CommentRate, err = getInt("COMMENT_RATE_LIMIT", 5); err != nil {
		return l, err
	}
	if l.CommentWindow, err = getDuration("COMMENT_RATE_WINDOW", time.Minute); err != nil {
		return l, err
	}
	if l.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return l, err
	}
	if l.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return l, err
	}

	bodyLimit, err := getInt("REQUEST_BODY_LIMIT", 1<<20)
	if err != nil {
		return l, err
	}
	l.RequestBodyLimit = int64(bodyLimit)

	return l, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getList(key string, def []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
