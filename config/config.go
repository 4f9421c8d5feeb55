package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Database configuration
	DatabasePath string

	// Redis configuration
	RedisURL string

	// Identity configuration
	JWTSecret string
	TokenTTL  time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Banner storage
	BannerDir string

	// Payment configuration
	PaymentSessionTTL time.Duration

	// Rate limiting
	RequestsPerMinute int
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Database
		DatabasePath: getEnv("DATABASE_PATH", "data/event-market.db"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// Identity
		JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:  getEnvAsDuration("TOKEN_TTL", "24h"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Banner storage
		BannerDir: getEnv("BANNER_DIR", "data/banners"),

		// Payments
		PaymentSessionTTL: getEnvAsDuration("PAYMENT_SESSION_TTL", "10m"),

		// Rate limiting
		RequestsPerMinute: getEnvAsInt("REQUESTS_PER_MINUTE", 60),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
