package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// devJWTSecret signs tokens outside production only.
const devJWTSecret = "change-me-in-production"

type Config struct {
	ServerPort  string
	Environment string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	JWTSecret   string
	JWTLifetime time.Duration
	AdminAPIKey string

	UploadDir       string
	BackupDir       string
	BackupRetention time.Duration
	BackupHour      int
	PublicBaseURL   string
	CloudinaryURL   string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	Currency              string
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal

	TelrStoreID     string
	TelrAuthKey     string
	TelrMode        string
	TelrWebhookKey  string
	TelrReturnURL   string
	TelrEndpointURL string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:  getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "seafood"),

		JWTSecret:   getEnv("JWT_SECRET", devJWTSecret),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		BackupDir:     getEnv("BACKUP_DIR", "./backup/uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		CloudinaryURL: getEnv("CLOUDINARY_URL", ""),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "orders@freshcatch.local"),

		Currency: getEnv("CURRENCY", "USD"),

		TelrStoreID:     getEnv("TELR_STORE_ID", ""),
		TelrAuthKey:     getEnv("TELR_AUTH_KEY", ""),
		TelrMode:        getEnv("TELR_MODE", "sandbox"),
		TelrWebhookKey:  getEnv("TELR_WEBHOOK_SECRET", ""),
		TelrReturnURL:   getEnv("TELR_RETURN_URL", "http://localhost:8080/payment/return"),
		TelrEndpointURL: getEnv("TELR_ENDPOINT_URL", "https://secure.telr.com/gateway/order.json"),
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	var err error
	if cfg.JWTLifetime, err = getDuration("JWT_LIFETIME", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BackupRetention, err = getDuration("BACKUP_RETENTION", 4*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BackupHour, err = getInt("BACKUP_HOUR", 2); err != nil {
		return nil, err
	}
	if cfg.BackupHour < 0 || cfg.BackupHour > 23 {
		return nil, fmt.Errorf("BACKUP_HOUR must be 0-23, got %d", cfg.BackupHour)
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.ShippingFee, err = getDecimal("SHIPPING_FEE", "5.00"); err != nil {
		return nil, err
	}
	if cfg.FreeShippingThreshold, err = getDecimal("FREE_SHIPPING_THRESHOLD", "100.00"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns DATABASE_URL, or a DSN assembled from the DB_* keys.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	raw := getEnv(key, defaultValue)
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return v, nil
}
