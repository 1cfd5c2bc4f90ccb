package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "Zuripay"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultAccessTTL     = 24 * time.Hour
	defaultEmailTokenTTL = 6 * time.Hour
	defaultOTPTTL        = 10 * time.Minute
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	JWTSecret      string
	AccessTokenTTL time.Duration

	// EmailTokenTTL is the validity window of email-verification codes;
	// OTPTTL bounds login OTPs.
	EmailTokenTTL time.Duration
	OTPTTL        time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	SMSBaseURL  string
	SMSAPIKey   string
	SMSSenderID string

	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. Outside production the service can run without Postgres, Redis or
// delivery channels, so only production enforces their presence.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-only-secret"),
		AccessTokenTTL: defaultAccessTTL,
		EmailTokenTTL:  defaultEmailTokenTTL,
		OTPTTL:         defaultOTPTTL,
		SMTPHost:       os.Getenv("MAIL_HOST"),
		SMTPUser:       os.Getenv("MAIL_USER"),
		SMTPPassword:   os.Getenv("MAIL_PASSWORD"),
		MailFrom:       os.Getenv("MAIL_FROM"),
		SMSBaseURL:     os.Getenv("SMS_BASE_URL"),
		SMSAPIKey:      os.Getenv("SMS_API_KEY"),
		SMSSenderID:    os.Getenv("SMS_SENDER_ID"),
		ShutdownPeriod: defaultShutdownDelay,
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.EmailTokenTTL, err = durationEnv("EMAIL_TOKEN_TTL", cfg.EmailTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationEnv("OTP_TTL", cfg.OTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("MAIL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAIL_PORT: %w", err)
		}
		cfg.SMTPPort = port
	}

	if cfg.Production() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set in production")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set in production")
		}
		if os.Getenv("JWT_SECRET") == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// Production reports whether plaintext verification codes must travel only
// out-of-band. Every other environment echoes them in responses for
// testability.
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
