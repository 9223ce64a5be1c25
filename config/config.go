package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	AppEnv     string
	AppURL     string
	CORSOrigin string
	LogLevel   string

	DBURL         string
	DBAutoMigrate bool

	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string

	VercelAPIToken   string
	VercelTeamID     string
	VercelAPIBaseURL string

	RedisURL       string
	WebhookLockTTL time.Duration
}

func LoadEnv() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	return &Config{
		Port:       getEnv("PORT", "8080"),
		AppEnv:     getEnv("APP_ENV", "production"),
		AppURL:     strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DBURL:         mustEnv("DB_URL"),
		DBAutoMigrate: getBool("DB_AUTO_MIGRATE", true),

		JWTSecret: mustEnv("JWT_SECRET"),

		StripeSecretKey:     mustEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),

		// Vercel is optional: without a token, site pause/unpause is recorded locally only.
		VercelAPIToken:   getEnv("VERCEL_API_TOKEN", ""),
		VercelTeamID:     getEnv("VERCEL_TEAM_ID", ""),
		VercelAPIBaseURL: getEnv("VERCEL_API_BASE_URL", "https://api.vercel.com"),

		RedisURL:       getEnv("REDIS_URL", ""),
		WebhookLockTTL: getDuration("WEBHOOK_LOCK_TTL", 30*time.Second),
	}
}

// LoadDatabaseURL is used by the ops CLI, which only needs the database.
func LoadDatabaseURL() string {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return mustEnv("DB_URL")
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration for %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
