package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string

	AccessSecret       []byte
	RefreshSecret      []byte
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	AccessCookieMaxAge time.Duration

	MailUser     string
	MailPassword string
	SMTPHost     string
	SMTPPort     int

	DNSTimeout time.Duration

	KafkaBrokers      []string
	VerificationTopic string
	KafkaGroupID      string
}

// Load reads .env (if present) and the process environment. Every missing
// required variable is reported in the returned error.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Notice: .env file not loaded: %v. Using system environment variables", err)
	}

	var errs []error

	cfg := &Config{
		HTTPAddr:    EnvDefault("HTTP_ADDR", ":3000"),
		DatabaseURL: requireEnv("DATABASE_URL", &errs),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		AccessSecret:       []byte(requireEnv("ACCESS_TOKEN_SECRET", &errs)),
		RefreshSecret:      []byte(requireEnv("REFRESH_TOKEN_SECRET", &errs)),
		AccessTTL:          envDuration("ACCESS_TOKEN_TTL", 10*time.Second, &errs),
		RefreshTTL:         envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour, &errs),
		AccessCookieMaxAge: envDuration("ACCESS_COOKIE_MAX_AGE", time.Hour, &errs),

		MailUser:     requireEnv("EMAIL", &errs),
		MailPassword: requireEnv("EMAIL_PASSWORD", &errs),
		SMTPHost:     EnvDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     envInt("SMTP_PORT", 587, &errs),

		DNSTimeout: envDuration("DNS_TIMEOUT", 3*time.Second, &errs),

		KafkaBrokers:      CSV(os.Getenv("KAFKA_BROKERS")),
		VerificationTopic: EnvDefault("KAFKA_VERIFICATION_TOPIC", "verification_emails"),
		KafkaGroupID:      EnvDefault("KAFKA_GROUP_ID", "mailer"),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// CookieOutlivesToken reports whether the accessToken cookie is kept by the
// browser longer than the token inside it stays valid.
func (c *Config) CookieOutlivesToken() bool {
	return c.AccessCookieMaxAge > c.AccessTTL
}

func (c *Config) QueueMail() bool { return len(c.KafkaBrokers) > 0 }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string, errs *[]error) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		*errs = append(*errs, fmt.Errorf("missing required env %s", key))
	}
	return v
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid duration in %s: %q", key, v))
		return def
	}
	return d
}

func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid integer in %s: %q", key, v))
		return def
	}
	return n
}
