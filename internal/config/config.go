package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	App       AppConfig
	Optimizer OptimizerConfig
	Tour      TourConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	SessionTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

type OptimizerConfig struct {
	URL     string
	Timeout time.Duration
}

type TourConfig struct {
	WeekendAreas []string
	// AuditInterval schedules the stale route order audit; zero disables it.
	AuditInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "25"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.ParseInt(getEnv("DB_MIN_CONNS", "2"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "careroute_tour"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Redis configuration
	redisPort, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	// session keys never expire unless a TTL is set
	sessionTTL, err := time.ParseDuration(getEnv("REDIS_SESSION_TTL", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_SESSION_TTL: %w", err)
	}

	config.Redis = RedisConfig{
		Host:       getEnv("REDIS_HOST", "localhost"),
		Port:       redisPort,
		Password:   getEnv("REDIS_PASSWORD", ""),
		DB:         redisDB,
		SessionTTL: sessionTTL,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.App.CORSAllowedOrigins) == 0 {
		config.App.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	accessExpiration, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	// Optimizer configuration
	optimizerTimeout, err := time.ParseDuration(getEnv("OPTIMIZER_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPTIMIZER_TIMEOUT: %w", err)
	}

	config.Optimizer = OptimizerConfig{
		URL:     getEnv("OPTIMIZER_URL", ""),
		Timeout: optimizerTimeout,
	}

	auditInterval, err := time.ParseDuration(getEnv("ROUTE_AUDIT_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROUTE_AUDIT_INTERVAL: %w", err)
	}

	config.Tour = TourConfig{
		WeekendAreas:  getEnvSlice("WEEKEND_AREAS"),
		AuditInterval: auditInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Optimizer.URL == "" {
		return fmt.Errorf("OPTIMIZER_URL is required")
	}
	if c.Redis.SessionTTL < 0 {
		return fmt.Errorf("REDIS_SESSION_TTL must not be negative")
	}
	if c.Optimizer.Timeout <= 0 {
		return fmt.Errorf("OPTIMIZER_TIMEOUT must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvSlice splits a comma separated variable, dropping blank entries.
func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	result := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
