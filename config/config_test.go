package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SERVER_ADDR", "STORE_BACKEND", "DATABASE_URL", "LOCAL_STORE_PATH",
	"REMOTE_STORE_URL", "REMOTE_TIMEOUT_SECONDS", "JWT_SECRET", "SESSION_TTL_HOURS",
	"ALLOWED_ORIGINS", "KAFKA_BROKER", "KAFKA_TOPIC", "BCRYPT_COST", "LOGIN_RATE_PER_MINUTE",
	"SEED_ADMIN_USERNAME", "SEED_ADMIN_EMAIL", "SEED_ADMIN_PASSWORD",
}

// clearEnv blanks every key Load reads. Empty values are ignored by Load.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, BackendLocal, cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeoutDuration())
	assert.Equal(t, 24*time.Hour, cfg.SessionTTLDuration())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 30, cfg.LoginRate)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_addr: ":9000"
store_backend: postgres
database_url: postgres://from-yaml
jwt_secret: yaml-secret
allowed_origins:
  - https://a.example.com
seed_admin:
  username: admin
  password: admin123
`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("ALLOWED_ORIGINS", "https://b.example.com, https://c.example.com")
	t.Setenv("BCRYPT_COST", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://from-env", cfg.DatabaseURL)
	assert.Equal(t, "yaml-secret", cfg.JWTSecret)
	assert.Equal(t, []string{"https://b.example.com", "https://c.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "admin", cfg.SeedAdmin.Username)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"postgres without url", map[string]string{"JWT_SECRET": "x", "STORE_BACKEND": "postgres"}},
		{"remote without url", map[string]string{"JWT_SECRET": "x", "STORE_BACKEND": "remote"}},
		{"unknown backend", map[string]string{"JWT_SECRET": "x", "STORE_BACKEND": "mongo"}},
		{"bad int", map[string]string{"JWT_SECRET": "x", "SESSION_TTL_HOURS": "soon"}},
		{"zero timeout", map[string]string{"JWT_SECRET": "x", "REMOTE_TIMEOUT_SECONDS": "0"}},
		{"half seed admin", map[string]string{"JWT_SECRET": "x", "SEED_ADMIN_USERNAME": "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
