package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	OTPStorePostgres = "postgres"
	OTPStoreRedis    = "redis"

	NotifierSES  = "ses"
	NotifierSMTP = "smtp"
	NotifierLog  = "log"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Auth       AuthConfig
	LoginGuard LoginGuardConfig
	RateLimit  RateLimitConfig
	Notifier   NotifierConfig
}

type DatabaseConfig struct {
	Host              string        `env:"DB_HOST" envDefault:"localhost"`
	Port              int           `env:"DB_PORT" envDefault:"5432"`
	User              string        `env:"DB_USER" envDefault:"postgres"`
	Password          string        `env:"DB_PASSWORD,required"`
	Name              string        `env:"DB_NAME" envDefault:"taskvault"`
	SSLMode           string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns          int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	MinConns          int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"5m"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"1m"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Env             string        `env:"ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	TrustedProxies  []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type AuthConfig struct {
	JWTSecret           string        `env:"JWT_SECRET,required"`
	AccessTokenExpiry   time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenExpiry  time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
	CleanupInterval     time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	TimingDelayBaseMs   int           `env:"TIMING_DELAY_BASE_MS" envDefault:"100"`
	TimingDelayRandomMs int           `env:"TIMING_DELAY_RANDOM_MS" envDefault:"50"`
	CookieDomain        string        `env:"COOKIE_DOMAIN"`
	CookieSameSite      string        `env:"COOKIE_SAMESITE" envDefault:"strict"`
}

// LoginGuardConfig holds the lockout and one-time code policy
type LoginGuardConfig struct {
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"`
	OTPExpiry        time.Duration `env:"OTP_EXPIRY" envDefault:"10m"`
	MaxOTPAttempts   int           `env:"MAX_OTP_ATTEMPTS" envDefault:"3"`
	OTPStoreDriver   string        `env:"OTP_STORE_DRIVER" envDefault:"postgres"`
}

// RateLimitConfig configures request-layer throttling in front of the login guard
type RateLimitConfig struct {
	MaxFailedPerIP          int           `env:"RATE_LIMIT_MAX_FAILED_PER_IP" envDefault:"20"`
	MaxFailedPerDevice      int           `env:"RATE_LIMIT_MAX_FAILED_PER_DEVICE" envDefault:"10"`
	LookbackWindow          time.Duration `env:"RATE_LIMIT_LOOKBACK_WINDOW" envDefault:"15m"`
	LoginRequestsPerMinute  int           `env:"RATE_LIMIT_LOGIN_PER_MINUTE" envDefault:"10"`
	VerifyRequestsPerMinute int           `env:"RATE_LIMIT_VERIFY_PER_MINUTE" envDefault:"10"`
	ResendRequestsPerMinute int           `env:"RATE_LIMIT_RESEND_PER_MINUTE" envDefault:"3"`
	APIRequestsPerMinute    int           `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"120"`
}

type NotifierConfig struct {
	Driver       string `env:"NOTIFIER_DRIVER" envDefault:"log"`
	FromAddress  string `env:"EMAIL_FROM"`
	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = defaultAllowedOrigins(cfg.Server.Env)
	}
	for i, origin := range cfg.Server.AllowedOrigins {
		cfg.Server.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	if err := validateJWTSecret(cfg.Auth.JWTSecret, cfg.Server.Env); err != nil {
		return nil, err
	}
	if err := cfg.LoginGuard.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifier.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *LoginGuardConfig) validate() error {
	if c.MaxLoginAttempts < 1 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive (got %d)", c.MaxLoginAttempts)
	}
	if c.MaxOTPAttempts < 1 {
		return fmt.Errorf("MAX_OTP_ATTEMPTS must be positive (got %d)", c.MaxOTPAttempts)
	}
	if c.LockoutDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive")
	}
	if c.OTPExpiry <= 0 {
		return fmt.Errorf("OTP_EXPIRY must be positive")
	}

	switch c.OTPStoreDriver {
	case OTPStorePostgres, OTPStoreRedis:
		return nil
	default:
		return fmt.Errorf("OTP_STORE_DRIVER must be %q or %q (got %q)", OTPStorePostgres, OTPStoreRedis, c.OTPStoreDriver)
	}
}

func (c *NotifierConfig) validate() error {
	switch c.Driver {
	case NotifierLog:
		return nil
	case NotifierSES:
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for the ses notifier")
		}
	case NotifierSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for the smtp notifier")
		}
	default:
		return fmt.Errorf("NOTIFIER_DRIVER must be one of ses, smtp, log (got %q)", c.Driver)
	}

	if c.FromAddress == "" {
		return fmt.Errorf("EMAIL_FROM is required for the %s notifier", c.Driver)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func defaultAllowedOrigins(env string) []string {
	if env == "production" {
		return []string{}
	}

	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
