package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_SIGNING_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "jwt", cfg.Auth.TokenBackend)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, "neuroscreen-uploads", cfg.Storage.Bucket)
}

func TestLoad_JWTBackendRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_TOKEN_BACKEND", "jwt")
	t.Setenv("AUTH_SIGNING_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SIGNING_SECRET")
}

func TestLoad_PasetoBackendRequires32ByteKey(t *testing.T) {
	t.Setenv("AUTH_TOKEN_BACKEND", "paseto")

	t.Setenv("AUTH_PASETO_KEY", "too-short")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")

	t.Setenv("AUTH_PASETO_KEY", strings.Repeat("k", 32))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "paseto", cfg.Auth.TokenBackend)
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	t.Setenv("AUTH_TOKEN_BACKEND", "opaque")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_TOKEN_BACKEND")
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "app",
		Password: "secret",
		DBName:   "neuroscreen",
		SSLMode:  "require",
	}

	got := cfg.ConnectionString()
	assert.Equal(t, "host=db.internal port=5433 user=app password=secret dbname=neuroscreen sslmode=require", got)

	cfg.ChannelBinding = "require"
	assert.Contains(t, cfg.ConnectionString(), "channel_binding=require")
}

func TestGetSliceEnv(t *testing.T) {
	t.Setenv("AUTH_SIGNING_SECRET", "test-secret")
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com, https://staging.example.com ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.Server.TrustedOrigins)
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("AUTH_SIGNING_SECRET", "test-secret")
	t.Setenv("SESSION_DURATION", "3600")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Auth.SessionDuration)
}
