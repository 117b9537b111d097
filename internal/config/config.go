package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "Brenbala"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultAccessTokenTTL = time.Hour
	defaultOTPTTL         = 10 * time.Minute
	defaultOTPDigits      = 5
	defaultOTPMaxAttempts = 5
	defaultResetTicketTTL = 10 * time.Minute
	defaultLoginPerMinute = 5
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	AccessTokenTTL time.Duration
	OTPTTL         time.Duration
	OTPDigits      int
	OTPMaxAttempts int
	ResetTicketTTL time.Duration
	LoginPerMinute int
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: defaultAccessTokenTTL,
		OTPTTL:         defaultOTPTTL,
		OTPDigits:      defaultOTPDigits,
		OTPMaxAttempts: defaultOTPMaxAttempts,
		ResetTicketTTL: defaultResetTicketTTL,
		LoginPerMinute: defaultLoginPerMinute,
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}

	durations := []struct {
		name   string
		target *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &cfg.AccessTokenTTL},
		{"OTP_TTL", &cfg.OTPTTL},
		{"RESET_TICKET_TTL", &cfg.ResetTicketTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
	}
	for _, d := range durations {
		if err := durationEnv(d.name, d.target); err != nil {
			return Config{}, err
		}
	}

	ints := []struct {
		name   string
		target *int
	}{
		{"OTP_DIGITS", &cfg.OTPDigits},
		{"OTP_MAX_ATTEMPTS", &cfg.OTPMaxAttempts},
		{"LOGIN_RATE_PER_MINUTE", &cfg.LoginPerMinute},
	}
	for _, i := range ints {
		if err := intEnv(i.name, i.target); err != nil {
			return Config{}, err
		}
	}

	if cfg.OTPDigits < 4 || cfg.OTPDigits > 6 {
		return Config{}, fmt.Errorf("OTP_DIGITS must be between 4 and 6, got %d", cfg.OTPDigits)
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "brenbala-dev-secret"
	}

	return cfg, nil
}

// IsDev reports whether the application runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}

func intEnv(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = n
	return nil
}
