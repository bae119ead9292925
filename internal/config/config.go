package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	// DefaultUserID bootstraps a single-user installation.
	DefaultUserID int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// InvoiceNumberPrefix seeds numbering when a user has no format
	// template configured.
	InvoiceNumberPrefix string

	// DocumentDir is the root of the local document store.
	DocumentDir string

	Seller SellerConfig

	Extraction ExtractionConfig
}

// SellerConfig is the issuer identity printed on rendered invoices.
type SellerConfig struct {
	Name        string
	Address     string
	Email       string
	VATID       string
	BankDetails string
}

// ExtractionConfig configures the Document AI invoice extraction provider.
type ExtractionConfig struct {
	Enabled     bool
	ProjectID   string
	Location    string
	ProcessorID string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "mantodeus-manager"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DefaultUserID: getenvInt64("DEFAULT_USER", 0),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "manager"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 4),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 16),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),

		InvoiceNumberPrefix: getenv("INVOICE_NUMBER_PREFIX", "RE"),

		DocumentDir: getenv("DOCUMENT_DIR", "data/documents"),

		Seller: SellerConfig{
			Name:        getenv("SELLER_NAME", ""),
			Address:     getenv("SELLER_ADDRESS", ""),
			Email:       getenv("SELLER_EMAIL", ""),
			VATID:       getenv("SELLER_VAT_ID", ""),
			BankDetails: getenv("SELLER_BANK_DETAILS", ""),
		},

		Extraction: ExtractionConfig{
			Enabled:     getenvBool("EXTRACTION_ENABLED", false),
			ProjectID:   strings.TrimSpace(getenv("GOOGLE_PROJECT_ID", "")),
			Location:    getenv("GOOGLE_LOCATION", "eu"),
			ProcessorID: strings.TrimSpace(getenv("GOOGLE_PROCESSOR_ID", "")),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
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

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
