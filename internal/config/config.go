package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings, read from the environment.
type Config struct {
	Port           string
	DB             DBConfig
	JWTSecret      string
	JWTTTL         time.Duration
	PhoneRegion    string
	AuthRateLimit  int
	AllowedOrigins []string

	// Empty disables POST /auth/bootstrap-admin.
	AdminBootstrapSecret string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// DSN renders the pgx connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "artmaster"),
			Password: getEnv("DB_PASSWORD", "artmaster"),
			Name:     getEnv("DB_NAME", "artmaster"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,
		PhoneRegion:   strings.ToUpper(getEnv("PHONE_REGION", "RU")),
		AuthRateLimit: getEnvInt("AUTH_RATE_LIMIT", 20),

		AdminBootstrapSecret: os.Getenv("ADMIN_BOOTSTRAP_SECRET"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
