package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (DUKA_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (DUKA_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Currency    string `default:"KES" usage:"ISO currency code shown in reports"`

	JWT       JWTConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	SMS       SMSConfig
	Airtel    AirtelConfig
	Bank      BankConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// JWTConfig controls token signing for staff sessions.
type JWTConfig struct {
	Secret string        `usage:"HMAC secret for session tokens (DUKA_JWT_SECRET)"`
	TTL    time.Duration `default:"24h" usage:"Session token lifetime"`
}

// RedisConfig controls the catalog cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `usage:"Redis address for the catalog cache; empty disables caching"`
	Password string        `usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database number"`
	TTL      time.Duration `default:"5m" usage:"Catalog cache entry lifetime"`
}

// SMTPConfig controls outbound email. An empty Host disables the channel.
type SMTPConfig struct {
	Host     string `usage:"SMTP server host; empty disables email notices"`
	Port     int    `default:"587" usage:"SMTP server port"`
	Username string `usage:"SMTP username"`
	Password string `usage:"SMTP password"`
	From     string `usage:"From address for customer notices"`
}

// SMSConfig controls outbound SMS. An empty AccountSID disables the channel.
type SMSConfig struct {
	AccountSID string `usage:"SMS gateway account SID; empty disables SMS notices" flag:"sms-account-sid"`
	AuthToken  string `usage:"SMS gateway auth token" flag:"sms-auth-token"`
	From       string `usage:"Sender phone number for customer notices" flag:"sms-from"`
	BaseURL    string `usage:"Override SMS gateway base URL" flag:"sms-base-url"`
}

// AirtelConfig controls the mobile money rail. An empty ClientID disables it.
type AirtelConfig struct {
	ClientID     string `usage:"Airtel Money OAuth client id; empty disables the rail" flag:"airtel-client-id"`
	ClientSecret string `usage:"Airtel Money OAuth client secret" flag:"airtel-client-secret"`
	BaseURL      string `usage:"Override Airtel Money API base URL" flag:"airtel-base-url"`
}

// BankConfig controls the bank transfer rail. An empty APIKey disables it.
type BankConfig struct {
	APIKey  string `usage:"Partner bank API key; empty disables the rail" flag:"bank-api-key"`
	BaseURL string `usage:"Partner bank API base URL" flag:"bank-base-url"`
}

// RateLimitConfig controls the per-client request rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "DUKA",
		Files:     []string{"config.yaml", "/etc/dukapos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set DUKA_DATABASE_URL or DATABASE_URL")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT secret is required: set DUKA_JWT_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's DUKA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
