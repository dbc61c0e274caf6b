package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/smallbiznis/wattbill/pkg/db"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	// SecretKey signs browser sessions for the dashboard UI.
	SecretKey string

	// InvoiceDir is where rendered invoice PDFs are stored.
	InvoiceDir string

	CloudOcean CloudOceanConfig

	DB db.Config
}

// CloudOceanConfig describes the Cloud Ocean metering API connection.
type CloudOceanConfig struct {
	BaseURL string
	APIKey  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "wattbill"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		SecretKey:   strings.TrimSpace(getenv("SECRET_KEY", "dev_secret_key")),
		InvoiceDir:  getenv("INVOICE_DIR", "static/invoices"),
		CloudOcean: CloudOceanConfig{
			BaseURL: strings.TrimRight(getenv("CLOUD_OCEAN_BASE_URL", "https://api.cloudocean.rve.ca"), "/"),
			APIKey:  strings.TrimSpace(getenv("CLOUD_OCEAN_API_KEY", "")),
		},
		DB: db.Config{
			Type:        getenv("DATABASE_TYPE", "sqlite"),
			Host:        getenv("DATABASE_HOST", "localhost"),
			Port:        getenv("DATABASE_PORT", "5432"),
			Name:        getenv("DATABASE_NAME", "wattbill"),
			User:        getenv("DATABASE_USER", "postgres"),
			Password:    getenv("DATABASE_PASSWORD", ""),
			SSLMode:     getenv("DATABASE_SSLMODE", "disable"),
			Path:        getenv("DATABASE_PATH", "wattbill.db"),
			MaxIdleConn: getenvInt("DATABASE_MAX_IDLE_CONN", 2),
			MaxOpenConn: getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
