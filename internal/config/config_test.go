package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_ADDR", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "ACCESS_COOKIE_MAX_AGE",
		"SMTP_HOST", "SMTP_PORT", "DNS_TIMEOUT", "KAFKA_BROKERS", "KAFKA_VERIFICATION_TOPIC",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_URL", "sqlite://file::memory:")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("EMAIL", "noreply@example.com")
	t.Setenv("EMAIL_PASSWORD", "app-password")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, []byte("access-secret"), cfg.AccessSecret)
	assert.Equal(t, []byte("refresh-secret"), cfg.RefreshSecret)
	assert.Equal(t, 10*time.Second, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, time.Hour, cfg.AccessCookieMaxAge)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 3*time.Second, cfg.DNSTimeout)
	assert.Equal(t, "verification_emails", cfg.VerificationTopic)
	assert.False(t, cfg.QueueMail())
	assert.True(t, cfg.CookieOutlivesToken())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":18080")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("ACCESS_COOKIE_MAX_AGE", "15m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("KAFKA_BROKERS", "kafka:9092, kafka2:9092,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":18080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, []string{"kafka:9092", "kafka2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.QueueMail())
	assert.False(t, cfg.CookieOutlivesToken())
}

func TestLoad_MissingSecretsIsAnError(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("EMAIL_PASSWORD", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "EMAIL_PASSWORD")
	assert.NotContains(t, err.Error(), "REFRESH_TOKEN_SECRET")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL")
}

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a ,,b"))
}
