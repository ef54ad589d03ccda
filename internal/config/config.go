// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// DB
	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	// Redis (job lock + trigger channel)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret string

	// Content sync
	PatreonAccessToken string
	SyncFeedURL        string
	SyncFetchTimeout   time.Duration
	SyncLockTTL        time.Duration

	// R2 Storage (post assets)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string

	// CORS
	AllowedOrigins string
}

func Load() *Config {
	if os.Getenv("ENV") != "production" {
		_ = godotenv.Load() // optional .env for local
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8086"
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		log.Fatalf("❌ Invalid REDIS_DB: %v", err)
	}

	fetchTimeoutSec, err := strconv.Atoi(getEnv("SYNC_FETCH_TIMEOUT_SECONDS", "30"))
	if err != nil {
		log.Fatalf("❌ Invalid SYNC_FETCH_TIMEOUT_SECONDS: %v", err)
	}

	lockTTLMin, err := strconv.Atoi(getEnv("SYNC_LOCK_TTL_MINUTES", "30"))
	if err != nil {
		log.Fatalf("❌ Invalid SYNC_LOCK_TTL_MINUTES: %v", err)
	}

	return &Config{
		ServerPort: port,

		DBHost:    getEnv("DB_HOST", "localhost"),
		DBPort:    getEnv("DB_PORT", "5432"),
		DBUser:    getEnv("DB_USER", "postgres"),
		DBPass:    getEnv("DB_PASS", "postgres"),
		DBName:    getEnv("DB_NAME", "gallery_db"),
		DBSSLMode: getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		JWTSecret: getEnv("JWT_SECRET", "dev-only-secret"),

		PatreonAccessToken: os.Getenv("PATREON_ACCESS_TOKEN"),
		SyncFeedURL: getEnv("SYNC_FEED_URL",
			"https://www.patreon.com/api/oauth2/v2/campaigns/8365446/posts?fields%5Bpost%5D=content,title,published_at"),
		SyncFetchTimeout: time.Duration(fetchTimeoutSec) * time.Second,
		SyncLockTTL:      time.Duration(lockTTLMin) * time.Minute,

		// R2 Configuration
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		// CORS Configuration
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
