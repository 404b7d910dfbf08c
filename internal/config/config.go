package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverMongo  = "mongo"
)

type Config struct {
	Port        string
	Environment string
	AppId       string

	StoreDriver string // "memory" or "mongo"
	MongoURI    string
	DBName      string

	CorsAllowOrigins string

	CrmRequestTimeout       time.Duration
	AutoSyncSchedule        string // cron expression, empty disables auto sync
	AutoSyncIntervalMinutes int
	WebhookLogRetention     time.Duration
	WebhookLogPurgeSchedule string

	MetaAppSecret       string
	MetaVerifyToken     string
	WhatsAppAppSecret   string
	WhatsAppVerifyToken string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "crm-gateway"),

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverMemory),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "crm-gateway"),

		CorsAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000, http://localhost:5173"),

		CrmRequestTimeout:       time.Duration(getEnvInt("CRM_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		AutoSyncSchedule:        getEnv("AUTO_SYNC_SCHEDULE", "*/5 * * * *"),
		AutoSyncIntervalMinutes: getEnvInt("AUTO_SYNC_INTERVAL_MINUTES", 5),
		WebhookLogRetention:     time.Duration(getEnvInt("WEBHOOK_LOG_RETENTION_HOURS", 72)) * time.Hour,
		WebhookLogPurgeSchedule: getEnv("WEBHOOK_LOG_PURGE_SCHEDULE", "@hourly"),

		MetaAppSecret:       getEnv("META_APP_SECRET", ""),
		MetaVerifyToken:     getEnv("META_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:   getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),
	}, nil
}

// UsesMongo reports whether repositories should be backed by MongoDB
func (c *Config) UsesMongo() bool {
	return c.StoreDriver == StoreDriverMongo
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
