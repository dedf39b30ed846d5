package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Email     EmailConfig
	OTP       OTPConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	BodyLimitBytes  int64
	CleanupInterval time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type EmailConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	FromName  string
	Async     bool
	QueueSize int
}

type OTPConfig struct {
	ExpiryMinutes int
	Length        int
	MaxAttempts   int
}

func (c OTPConfig) TTL() time.Duration {
	return time.Duration(c.ExpiryMinutes) * time.Minute
}

type SessionConfig struct {
	MaxSessions int
}

type RateLimitConfig struct {
	Enabled bool
	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix
}

// LoadConfig reads an optional env file, then lets the process environment
// override it.
func LoadConfig(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "otp-auth")
	v.SetDefault("PORT", "5000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("BODY_LIMIT_BYTES", 10<<20)
	v.SetDefault("CLEANUP_INTERVAL", "1m")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("JWT_ISSUER", "otp-auth")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_FROM_NAME", "ElderlyCare")
	v.SetDefault("MAIL_ASYNC", false)
	v.SetDefault("MAIL_QUEUE_SIZE", 100)
	v.SetDefault("OTP_EXPIRY_MINUTES", 5)
	v.SetDefault("OTP_LENGTH", 5)
	v.SetDefault("OTP_MAX_ATTEMPTS", 3)
	v.SetDefault("SESSION_MAX", 5)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("TRUSTED_PROXIES", "")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read config %s: %w", envFile, err)
		}
	}

	v.AutomaticEnv()

	proxies, err := parsePrefixes(v.GetString("TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			BodyLimitBytes:  v.GetInt64("BODY_LIMIT_BYTES"),
			CleanupInterval: v.GetDuration("CLEANUP_INTERVAL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASS"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessTTL:     v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL:    v.GetDuration("JWT_REFRESH_TTL"),
			Issuer:        v.GetString("JWT_ISSUER"),
		},
		Email: EmailConfig{
			Host:      v.GetString("SMTP_HOST"),
			Port:      v.GetInt("SMTP_PORT"),
			User:      v.GetString("SMTP_USER"),
			Password:  v.GetString("SMTP_PASS"),
			From:      v.GetString("EMAIL_FROM"),
			FromName:  v.GetString("EMAIL_FROM_NAME"),
			Async:     v.GetBool("MAIL_ASYNC"),
			QueueSize: v.GetInt("MAIL_QUEUE_SIZE"),
		},
		OTP: OTPConfig{
			ExpiryMinutes: v.GetInt("OTP_EXPIRY_MINUTES"),
			Length:        v.GetInt("OTP_LENGTH"),
			MaxAttempts:   v.GetInt("OTP_MAX_ATTEMPTS"),
		},
		Session: SessionConfig{
			MaxSessions: v.GetInt("SESSION_MAX"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
			TrustedProxies: proxies,
		},
	}

	if config.Email.From == "" {
		config.Email.From = config.Email.User
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch {
	case c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "":
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	case c.JWT.AccessSecret == c.JWT.RefreshSecret:
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	case c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0:
		return errors.New("token TTLs must be positive")
	case c.OTP.Length != 5 && c.OTP.Length != 6:
		return fmt.Errorf("OTP_LENGTH must be 5 or 6, got %d", c.OTP.Length)
	case c.OTP.ExpiryMinutes <= 0:
		return errors.New("OTP_EXPIRY_MINUTES must be positive")
	case c.OTP.MaxAttempts <= 0:
		return errors.New("OTP_MAX_ATTEMPTS must be positive")
	case c.Session.MaxSessions <= 0:
		return errors.New("SESSION_MAX must be positive")
	case c.App.CleanupInterval <= 0:
		return errors.New("CLEANUP_INTERVAL must be positive")
	case c.App.BodyLimitBytes <= 0:
		return errors.New("BODY_LIMIT_BYTES must be positive")
	}
	return nil
}

// parsePrefixes reads a comma separated list of CIDRs. A bare address is
// taken as a single-host prefix.
func parsePrefixes(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			addr, err := netip.ParseAddr(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}
