package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the cattle monitor service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Webhook configuration. An empty URL disables outbound alerts.
	WebhookURL       string
	WebhookQueueSize int

	// Overpass API endpoint for the feature scanner
	OverpassURL string

	// RabbitMQ configuration. An empty URL disables the message bus.
	AMQPURL string

	// Predictor model files
	HealthModelPath  string
	BatteryModelPath string
}

// Load loads configuration from environment variables. A local .env file is
// honored when present.
func Load() *Config {
	godotenv.Load()

	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "cattle"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Alert delivery
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		WebhookQueueSize: getIntEnv("WEBHOOK_QUEUE_SIZE", 64),

		// Feature scanning
		OverpassURL: getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),

		// Message bus
		AMQPURL: getEnv("AMQP_URL", ""),

		// Predictor models
		HealthModelPath:  getEnv("HEALTH_MODEL_PATH", "models/health_model.json"),
		BatteryModelPath: getEnv("BATTERY_MODEL_PATH", "models/battery_model.json"),
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
