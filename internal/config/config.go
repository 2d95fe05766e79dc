package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort            string
	PostgresDSN         string
	RedisAddr           string
	JWTSecret           string
	IdentityBaseURL     string
	IdentityInternalKey string
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	MailFrom            string
	SweepInterval       time.Duration
	DBMaxOpenConns      int
	DBMaxIdleConns      int
	DBConnMaxIdle       time.Duration
	DBConnMaxLife       time.Duration
	RequestTimeout      time.Duration
	LogLevel            string
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		PostgresDSN:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		IdentityBaseURL:     getEnv("IDENTITY_BASE_URL", ""),
		IdentityInternalKey: getEnv("IDENTITY_INTERNAL_KEY", ""),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		MailFrom:            getEnv("MAIL_FROM", "no-reply@teacha.local"),
		SweepInterval:       getDuration("SWEEP_INTERVAL", time.Hour),
		DBMaxOpenConns:      getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:      getInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxIdle:       getDuration("DB_CONN_MAX_IDLE", 5*time.Minute),
		DBConnMaxLife:       getDuration("DB_CONN_MAX_LIFE", 30*time.Minute),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 10*time.Second),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if cfg.PostgresDSN == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
