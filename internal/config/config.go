package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	JWTAlgorithm  string
	TokenTTL      time.Duration
	CORSOrigins   []string
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		MongoURI:      getenv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDB:       getenv("MONGODB_DATABASE", "stock_market_db"),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		JWTSecret:     getenv("JWT_SECRET_KEY", ""),
		JWTAlgorithm:  getenv("JWT_ALGORITHM", "HS256"),
		TokenTTL:      getduration("TOKEN_TTL_SECONDS", 15*time.Minute),
		CORSOrigins: strings.Split(
			getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001"), ",",
		),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
