// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Admin       AdminConfig
	AWS         AWSConfig
	ERP         ERPConfig
	WhatsApp    WhatsAppConfig
	Pricing     PricingConfig
	Documents   DocumentsConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL        string
	AllowedOrigins []string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	RateLimit    bool
}

type DatabaseConfig struct {
	Driver       string // postgres | sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

// AdminConfig seeds the first administrator on an empty database.
type AdminConfig struct {
	Email    string
	Password string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type ERPConfig struct {
	Enabled        bool
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
}

type WhatsAppConfig struct {
	SalesNumber   string
	ContactNumber string
}

type PricingConfig struct {
	Timezone                string
	DefaultConversionFactor float64
	MinLotPolyamideKg       float64
	MinLotDefaultKg         float64
}

type DocumentsConfig struct {
	CompanyName string
	LogoPath    string
	LocalDir    string
	PublicURL   string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnvAsBool("SERVER_RATE_LIMIT", true),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "malhas"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "malhas.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 12),
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@fastmalhas.com.br"),
			Password: getEnv("ADMIN_PASSWORD", "change-me-admin"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "sa-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "malhas-documents"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		ERP: ERPConfig{
			Enabled:        getEnvAsBool("ERP_ENABLED", false),
			Endpoint:       getEnv("ERP_ENDPOINT", ""),
			APIKey:         getEnv("ERP_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("ERP_TIMEOUT_SECONDS", 20),
		},
		WhatsApp: WhatsAppConfig{
			SalesNumber:   getEnv("WHATSAPP_SALES_NUMBER", "5522998833821"),
			ContactNumber: getEnv("WHATSAPP_CONTACT_NUMBER", "5522997550012"),
		},
		Pricing: PricingConfig{
			Timezone:                getEnv("PRICING_TIMEZONE", "America/Sao_Paulo"),
			DefaultConversionFactor: getEnvAsFloat("PRICING_DEFAULT_CONVERSION_FACTOR", 0),
			MinLotPolyamideKg:       getEnvAsFloat("PRICING_MIN_LOT_POLYAMIDE_KG", 210),
			MinLotDefaultKg:         getEnvAsFloat("PRICING_MIN_LOT_DEFAULT_KG", 240),
		},
		Documents: DocumentsConfig{
			CompanyName: getEnv("DOCUMENTS_COMPANY_NAME", "FAST Malhas"),
			LogoPath:    getEnv("DOCUMENTS_LOGO_PATH", ""),
			LocalDir:    getEnv("DOCUMENTS_LOCAL_DIR", "./storage/documents"),
			PublicURL:   getEnv("DOCUMENTS_PUBLIC_URL", "http://localhost:8080/documents"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "pt_BR"),
		},
		Frontend: FrontendConfig{
			BaseURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.Admin.Password == "change-me-admin" && c.IsProduction() {
		return fmt.Errorf("ADMIN_PASSWORD must be set in production")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.ERP.Enabled && c.ERP.Endpoint == "" {
		return fmt.Errorf("ERP_ENDPOINT is required when ERP submission is enabled")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
