package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	AWS      AWSConfig
	Azure    AzureConfig
	Compare  CompareConfig
	Cron     CronConfig
	App      AppConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	SecretKey          string
	TokenExpireMinutes int
}

type AWSConfig struct {
	// The AWS Pricing API is only served out of us-east-1.
	PricingRegion string
}

type AzureConfig struct {
	RetailPricesURL string
}

type CompareConfig struct {
	CacheTTL time.Duration
}

type CronConfig struct {
	Enabled bool
	Spec    string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "cloudanalytics"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("JWT_SECRET", ""),
			TokenExpireMinutes: getEnvAsInt("TOKEN_EXPIRE_MINUTES", 30),
		},
		AWS: AWSConfig{
			PricingRegion: getEnv("AWS_PRICING_REGION", "us-east-1"),
		},
		Azure: AzureConfig{
			RetailPricesURL: getEnv("AZURE_RETAIL_PRICES_URL", "https://prices.azure.com/api/retail/prices"),
		},
		Compare: CompareConfig{
			CacheTTL: getEnvAsDuration("COMPARE_CACHE_TTL", time.Hour),
		},
		Cron: CronConfig{
			Enabled: getEnvAsBool("CRON_ENABLED", false),
			Spec:    getEnv("CRON_SPEC", "0 0 0 * * *"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Auth.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Auth.TokenExpireMinutes <= 0 {
		return fmt.Errorf("TOKEN_EXPIRE_MINUTES must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
