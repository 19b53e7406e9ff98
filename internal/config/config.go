package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	PayPal    PayPalConfig
	Checkout  CheckoutConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SessionConfig struct {
	Secret string
	MaxAge int // seconds
}

// PayPalConfig holds the REST API credentials. Endpoint overrides the URL
// derived from Mode.
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string // "sandbox" or "live"
	Endpoint     string
}

type CheckoutConfig struct {
	Currency          string
	Description       string
	PendingPaymentTTL time.Duration
	SweepInterval     time.Duration
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// TracingConfig selects the OTLP/HTTP collector. An empty endpoint disables
// export.
type TracingConfig struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

const (
	PayPalModeSandbox = "sandbox"
	PayPalModeLive    = "live"

	payPalSandboxURL = "https://api.sandbox.paypal.com"
	payPalLiveURL    = "https://api.paypal.com"
)

// BaseURL returns the REST endpoint for the configured mode
func (c PayPalConfig) BaseURL() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	if c.Mode == PayPalModeLive {
		return payPalLiveURL
	}
	return payPalSandboxURL
}

// Configured reports whether credentials are present
func (c PayPalConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),

			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
		},
		Database: parseDatabaseConfig(),
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
			MaxAge: getEnvAsInt("SESSION_MAX_AGE", 86400*30),
		},
		PayPal: PayPalConfig{
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
			Mode:         getEnv("PAYPAL_MODE", PayPalModeSandbox),
			Endpoint:     getEnv("PAYPAL_ENDPOINT", ""),
		},
		Checkout: CheckoutConfig{
			Currency:          strings.ToUpper(getEnv("CHECKOUT_CURRENCY", "EUR")),
			Description:       getEnv("CHECKOUT_DESCRIPTION", "Thank you for purchasing tickets!"),
			PendingPaymentTTL: getEnvAsDuration("PENDING_PAYMENT_TTL", 3*time.Hour),
			SweepInterval:     getEnvAsDuration("PENDING_PAYMENT_SWEEP_INTERVAL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("CHECKOUT_RATE_LIMIT", 20),
			Window:   getEnvAsDuration("CHECKOUT_RATE_WINDOW", time.Minute),
		},
		Tracing: TracingConfig{
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ticket-checkout"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnv("OTEL_EXPORTER_OTLP_INSECURE", "false") == "true",
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.PayPal.Mode {
	case PayPalModeSandbox, PayPalModeLive:
	default:
		return errors.New("PAYPAL_MODE must be sandbox or live")
	}

	if c.PayPal.Mode == PayPalModeLive && !c.PayPal.Configured() {
		return errors.New("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required in live mode")
	}

	if len(c.Checkout.Currency) != 3 {
		return errors.New("CHECKOUT_CURRENCY must be a three letter ISO code")
	}

	if c.Checkout.PendingPaymentTTL <= 0 {
		return errors.New("PENDING_PAYMENT_TTL must be positive")
	}

	if c.Checkout.SweepInterval <= 0 {
		return errors.New("PENDING_PAYMENT_SWEEP_INTERVAL must be positive")
	}

	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func parseDatabaseConfig() DatabaseConfig {
	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		return parseDatabaseURL(databaseURL)
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "ticket_checkout"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	config.DBName = strings.TrimPrefix(u.Path, "/")

	config.SSLMode = u.Query().Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
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
