package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Database  DatabaseConfig  `envconfig:"DATABASE"`
	JWT       JWTConfig       `envconfig:"JWT"`
	OAuth     OAuthConfig     `envconfig:"OAUTH"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	Log       LogConfig       `envconfig:"LOG"`
	Mail      MailConfig      `envconfig:"MAIL"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Env             string        `envconfig:"ENV" default:"development"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func (s ServerConfig) IsProduction() bool { return s.Env == "production" }

type DatabaseConfig struct {
	Driver          string        `envconfig:"DRIVER" default:"mysql"` // mysql | postgres
	DSN             string        `envconfig:"DSN" default:"estatehub:estatehub@tcp(localhost:3306)/estatehub?charset=utf8mb4&parseTime=True&loc=Local"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"100"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	SeedAdTypes     bool          `envconfig:"SEED_AD_TYPES" default:"true"`
}

type JWTConfig struct {
	AccessSecret  string        `envconfig:"ACCESS_SECRET" default:"change-me-in-production"`
	RefreshSecret string        `envconfig:"REFRESH_SECRET" default:"change-me-refresh"`
	AccessExpiry  time.Duration `envconfig:"ACCESS_EXPIRY" default:"15m"`
	RefreshExpiry time.Duration `envconfig:"REFRESH_EXPIRY" default:"168h"`
	Issuer        string        `envconfig:"ISSUER" default:"estatehub"`
}

type OAuthConfig struct {
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8000/api/login/google/callback"`

	FacebookClientID     string `envconfig:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `envconfig:"FACEBOOK_CLIENT_SECRET"`
	FacebookRedirectURL  string `envconfig:"FACEBOOK_REDIRECT_URL" default:"http://localhost:8000/api/login/facebook/callback"`
}

// MailConfig is the SMTP relay for account mail. An empty Host logs messages instead of sending.
type MailConfig struct {
	Host        string        `envconfig:"HOST"`
	Port        int           `envconfig:"PORT" default:"587"`
	Username    string        `envconfig:"USERNAME"`
	Password    string        `envconfig:"PASSWORD"`
	From        string        `envconfig:"FROM" default:"no-reply@estatehub.local"`
	FrontendURL string        `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	ResetExpiry time.Duration `envconfig:"RESET_EXPIRY" default:"60m"`
}

// RateLimitConfig is a per-IP token bucket: RequestsPerSecond refill, Burst capacity.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"RPS" default:"10"`
	Burst             int     `envconfig:"BURST" default:"30"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"` // json | console
}

const (
	defaultAccessSecret  = "change-me-in-production"
	defaultRefreshSecret = "change-me-refresh"
)

var ErrInsecureSecret = errors.New("default JWT secrets are not allowed in production")

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Server.IsProduction() &&
		(c.JWT.AccessSecret == defaultAccessSecret || c.JWT.RefreshSecret == defaultRefreshSecret) {
		return ErrInsecureSecret
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate limit must be positive (rps=%v burst=%d)", c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
	}
	if c.Mail.ResetExpiry <= 0 {
		return fmt.Errorf("config: MAIL_RESET_EXPIRY must be positive")
	}
	return nil
}
