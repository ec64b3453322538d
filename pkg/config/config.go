package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	OTel     OTelConfig     `mapstructure:"otel"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	PayPal   PayPalConfig   `mapstructure:"paypal"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Mail     MailConfig     `mapstructure:"mail"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
	// PublicURL is where the storefront lives; processors redirect back to it.
	PublicURL string `mapstructure:"public_url"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	Brokers           []string `mapstructure:"brokers"`
	ClientID          string   `mapstructure:"client_id"`
	BookingTopic      string   `mapstructure:"booking_topic"`
	PaymentTopic      string   `mapstructure:"payment_topic"`
	NotificationTopic string   `mapstructure:"notification_topic"`
}

// AuthConfig holds bearer token verification and account settings
type AuthConfig struct {
	Mode          string        `mapstructure:"mode"` // jwt or session
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	VerifyTTL     time.Duration `mapstructure:"verify_ttl"`
	ResetTTL      time.Duration `mapstructure:"reset_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
	MaxOwners     int           `mapstructure:"max_owners"`
	ClientSiteURL string        `mapstructure:"client_site_url"`
	AdminSiteURL  string        `mapstructure:"admin_site_url"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// PaymentConfig selects the processor wiring
type PaymentConfig struct {
	Gateway         string        `mapstructure:"gateway"` // live or mock
	InvoiceAttempts int           `mapstructure:"invoice_attempts"`
	IdempotencyTTL  time.Duration `mapstructure:"idempotency_ttl"`
}

// PayPalConfig holds PayPal REST credentials
type PayPalConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	APIBase      string        `mapstructure:"api_base"`
	BrandName    string        `mapstructure:"brand_name"`
	ReturnURL    string        `mapstructure:"return_url"`
	CancelURL    string        `mapstructure:"cancel_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	// WebhookID enables signature verification of PayPal webhooks
	WebhookID string `mapstructure:"webhook_id"`
}

// StripeConfig holds Stripe credentials
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
}

// ExchangeConfig holds exchange-rate lookup settings
type ExchangeConfig struct {
	APIURL        string             `mapstructure:"api_url"`
	Timeout       time.Duration      `mapstructure:"timeout"`
	CacheTTL      time.Duration      `mapstructure:"cache_ttl"`
	FallbackRates map[string]float64 `mapstructure:"fallback_rates"`
}

// MailConfig holds SMTP and recipient settings
type MailConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	From        string   `mapstructure:"from"`
	OwnerEmail  string   `mapstructure:"owner_email"`
	AdminEmails []string `mapstructure:"admin_emails"`
	MaxRetries  int      `mapstructure:"max_retries"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// A missing .env is fine, environment variables still apply
	_ = v.ReadInConfig()

	return load(v)
}

// LoadWithPath loads configuration from a specific path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "travel-api")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("APP_PUBLIC_URL", "http://localhost:8000")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "60s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Database defaults
	v.SetDefault("DATABASE_ENABLED", true)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_DBNAME", "travel_db")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "30m")

	// Redis defaults
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 20)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CLIENT_ID", "travel-api")
	v.SetDefault("KAFKA_BOOKING_TOPIC", "tour.booking-events")
	v.SetDefault("KAFKA_PAYMENT_TOPIC", "tour.payment-events")
	v.SetDefault("KAFKA_NOTIFICATION_TOPIC", "tour.notifications")

	// Auth defaults
	v.SetDefault("AUTH_MODE", "jwt")
	v.SetDefault("AUTH_JWT_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("AUTH_JWT_ISSUER", "travel-api")
	v.SetDefault("AUTH_SESSION_TTL", "24h")
	v.SetDefault("AUTH_ACCESS_TTL", "1h")
	v.SetDefault("AUTH_VERIFY_TTL", "1h")
	v.SetDefault("AUTH_RESET_TTL", "24h")
	v.SetDefault("AUTH_BCRYPT_COST", 10)
	v.SetDefault("AUTH_MAX_OWNERS", 2)
	v.SetDefault("AUTH_CLIENT_SITE_URL", "http://localhost:3000")
	v.SetDefault("AUTH_ADMIN_SITE_URL", "http://localhost:3001")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "travel-api")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	// Payment defaults
	v.SetDefault("PAYMENT_GATEWAY", "live")
	v.SetDefault("PAYMENT_INVOICE_ATTEMPTS", 20)
	v.SetDefault("PAYMENT_IDEMPOTENCY_TTL", "24h")

	// PayPal defaults (sandbox)
	v.SetDefault("PAYPAL_API_BASE", "https://api-m.sandbox.paypal.com")
	v.SetDefault("PAYPAL_BRAND_NAME", "Travel API")
	v.SetDefault("PAYPAL_RETURN_URL", "http://localhost:8000/checkout")
	v.SetDefault("PAYPAL_CANCEL_URL", "http://localhost:8000")
	v.SetDefault("PAYPAL_TIMEOUT", "30s")

	// Stripe defaults
	v.SetDefault("STRIPE_SUCCESS_URL", "http://localhost:8000/checkout")
	v.SetDefault("STRIPE_CANCEL_URL", "http://localhost:8000")

	// Exchange defaults
	v.SetDefault("EXCHANGE_API_URL", "https://open.er-api.com/v6")
	v.SetDefault("EXCHANGE_TIMEOUT", "5s")
	v.SetDefault("EXCHANGE_CACHE_TTL", "1h")
	v.SetDefault("EXCHANGE_FALLBACK_RATES", "IDR=16000")

	// Mail defaults
	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("MAIL_HOST", "smtp.gmail.com")
	v.SetDefault("MAIL_PORT", 465)
	v.SetDefault("MAIL_FROM", "no-reply@travel-api.local")
	v.SetDefault("MAIL_ADMIN_EMAILS", "")
	v.SetDefault("MAIL_MAX_RETRIES", 2)
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")
	cfg.App.PublicURL = v.GetString("APP_PUBLIC_URL")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	// Database
	cfg.Database.Enabled = v.GetBool("DATABASE_ENABLED")
	cfg.Database.Host = v.GetString("DATABASE_HOST")
	cfg.Database.Port = v.GetInt("DATABASE_PORT")
	cfg.Database.User = v.GetString("DATABASE_USER")
	cfg.Database.Password = v.GetString("DATABASE_PASSWORD")
	cfg.Database.DBName = v.GetString("DATABASE_DBNAME")
	cfg.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	cfg.Database.MaxOpenConns = v.GetInt("DATABASE_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DATABASE_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DATABASE_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("DATABASE_CONN_MAX_IDLE_TIME")

	// Redis
	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kafka
	cfg.Kafka.Enabled = v.GetBool("KAFKA_ENABLED")
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")
	cfg.Kafka.BookingTopic = v.GetString("KAFKA_BOOKING_TOPIC")
	cfg.Kafka.PaymentTopic = v.GetString("KAFKA_PAYMENT_TOPIC")
	cfg.Kafka.NotificationTopic = v.GetString("KAFKA_NOTIFICATION_TOPIC")

	// Auth
	cfg.Auth.Mode = strings.ToLower(v.GetString("AUTH_MODE"))
	cfg.Auth.JWTSecret = v.GetString("AUTH_JWT_SECRET")
	cfg.Auth.JWTIssuer = v.GetString("AUTH_JWT_ISSUER")
	cfg.Auth.SessionTTL = v.GetDuration("AUTH_SESSION_TTL")
	cfg.Auth.AccessTTL = v.GetDuration("AUTH_ACCESS_TTL")
	cfg.Auth.VerifyTTL = v.GetDuration("AUTH_VERIFY_TTL")
	cfg.Auth.ResetTTL = v.GetDuration("AUTH_RESET_TTL")
	cfg.Auth.BcryptCost = v.GetInt("AUTH_BCRYPT_COST")
	cfg.Auth.MaxOwners = v.GetInt("AUTH_MAX_OWNERS")
	cfg.Auth.ClientSiteURL = v.GetString("AUTH_CLIENT_SITE_URL")
	cfg.Auth.AdminSiteURL = v.GetString("AUTH_ADMIN_SITE_URL")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	// Payment
	cfg.Payment.Gateway = strings.ToLower(v.GetString("PAYMENT_GATEWAY"))
	cfg.Payment.InvoiceAttempts = v.GetInt("PAYMENT_INVOICE_ATTEMPTS")
	cfg.Payment.IdempotencyTTL = v.GetDuration("PAYMENT_IDEMPOTENCY_TTL")

	// PayPal
	cfg.PayPal.ClientID = v.GetString("PAYPAL_CLIENT_ID")
	cfg.PayPal.ClientSecret = v.GetString("PAYPAL_CLIENT_SECRET")
	cfg.PayPal.APIBase = v.GetString("PAYPAL_API_BASE")
	cfg.PayPal.BrandName = v.GetString("PAYPAL_BRAND_NAME")
	cfg.PayPal.ReturnURL = v.GetString("PAYPAL_RETURN_URL")
	cfg.PayPal.CancelURL = v.GetString("PAYPAL_CANCEL_URL")
	cfg.PayPal.Timeout = v.GetDuration("PAYPAL_TIMEOUT")
	cfg.PayPal.WebhookID = v.GetString("PAYPAL_WEBHOOK_ID")

	// Stripe
	cfg.Stripe.SecretKey = v.GetString("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = v.GetString("STRIPE_WEBHOOK_SECRET")
	cfg.Stripe.SuccessURL = v.GetString("STRIPE_SUCCESS_URL")
	cfg.Stripe.CancelURL = v.GetString("STRIPE_CANCEL_URL")

	// Exchange
	cfg.Exchange.APIURL = strings.TrimRight(v.GetString("EXCHANGE_API_URL"), "/")
	cfg.Exchange.Timeout = v.GetDuration("EXCHANGE_TIMEOUT")
	cfg.Exchange.CacheTTL = v.GetDuration("EXCHANGE_CACHE_TTL")
	rates, err := parseRates(v.GetString("EXCHANGE_FALLBACK_RATES"))
	if err != nil {
		return fmt.Errorf("EXCHANGE_FALLBACK_RATES: %w", err)
	}
	cfg.Exchange.FallbackRates = rates

	// Mail
	cfg.Mail.Enabled = v.GetBool("MAIL_ENABLED")
	cfg.Mail.Host = v.GetString("MAIL_HOST")
	cfg.Mail.Port = v.GetInt("MAIL_PORT")
	cfg.Mail.Username = v.GetString("MAIL_USERNAME")
	cfg.Mail.Password = v.GetString("MAIL_PASSWORD")
	cfg.Mail.From = v.GetString("MAIL_FROM")
	cfg.Mail.OwnerEmail = v.GetString("MAIL_OWNER_EMAIL")
	cfg.Mail.AdminEmails = splitList(v.GetString("MAIL_ADMIN_EMAILS"))
	cfg.Mail.MaxRetries = v.GetInt("MAIL_MAX_RETRIES")

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRates reads "IDR=16000,EUR=0.92" into a currency -> units-per-USD map
func parseRates(s string) (map[string]float64, error) {
	rates := make(map[string]float64)
	for _, pair := range splitList(s) {
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid rate for %s", code)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Auth.Mode {
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required")
		}
		if c.IsProduction() && c.Auth.JWTSecret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT secret must be changed in production")
		}
	case "session":
		if !c.Database.Enabled {
			return fmt.Errorf("AUTH_MODE=session requires the database")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE: %s", c.Auth.Mode)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("AUTH_SESSION_TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("invalid AUTH_BCRYPT_COST: %d", c.Auth.BcryptCost)
	}

	switch c.Payment.Gateway {
	case "live", "mock":
	default:
		return fmt.Errorf("unknown PAYMENT_GATEWAY: %s", c.Payment.Gateway)
	}

	if c.Payment.InvoiceAttempts <= 0 {
		return fmt.Errorf("PAYMENT_INVOICE_ATTEMPTS must be positive")
	}

	if c.Mail.Enabled && c.Mail.Host == "" {
		return fmt.Errorf("MAIL_HOST is required when mail is enabled")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
