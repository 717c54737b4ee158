// Package config loads server settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Backend string

const (
	BackendLocal    Backend = "local"
	BackendPostgres Backend = "postgres"
	BackendRemote   Backend = "remote"
)

type Config struct {
	ServerAddr     string   `yaml:"server_addr"`
	StoreBackend   Backend  `yaml:"store_backend"`
	DatabaseURL    string   `yaml:"database_url"`
	LocalStorePath string   `yaml:"local_store_path"`
	RemoteStoreURL string   `yaml:"remote_store_url"`
	RemoteTimeout  int      `yaml:"remote_timeout_seconds"`
	JWTSecret      string   `yaml:"jwt_secret"`
	SessionTTL     int      `yaml:"session_ttl_hours"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	KafkaBroker    string   `yaml:"kafka_broker"`
	KafkaTopic     string   `yaml:"kafka_topic"`
	BcryptCost     int      `yaml:"bcrypt_cost"`
	LoginRate      int      `yaml:"login_rate_per_minute"`
	SeedAdmin      Admin    `yaml:"seed_admin"`
}

// Admin is the account created on first start when none exists.
type Admin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func defaults() Config {
	return Config{
		ServerAddr:     ":8080",
		StoreBackend:   BackendLocal,
		LocalStorePath: "data/store.json",
		RemoteTimeout:  10,
		SessionTTL:     24,
		AllowedOrigins: []string{"http://localhost:3000"},
		KafkaTopic:     "photo-events",
		BcryptCost:     10,
		LoginRate:      30,
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse %s: %w", op, path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.ServerAddr, "SERVER_ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.LocalStorePath, "LOCAL_STORE_PATH")
	setString(&cfg.RemoteStoreURL, "REMOTE_STORE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.KafkaBroker, "KAFKA_BROKER")
	setString(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setString(&cfg.SeedAdmin.Username, "SEED_ADMIN_USERNAME")
	setString(&cfg.SeedAdmin.Email, "SEED_ADMIN_EMAIL")
	setString(&cfg.SeedAdmin.Password, "SEED_ADMIN_PASSWORD")

	if v, ok := os.LookupEnv("STORE_BACKEND"); ok && v != "" {
		cfg.StoreBackend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok && v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	for key, dst := range map[string]*int{
		"REMOTE_TIMEOUT_SECONDS": &cfg.RemoteTimeout,
		"SESSION_TTL_HOURS":      &cfg.SessionTTL,
		"BCRYPT_COST":            &cfg.BcryptCost,
		"LOGIN_RATE_PER_MINUTE":  &cfg.LoginRate,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that the settings required by the chosen backend are set.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendLocal:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL not set")
		}
	case BackendRemote:
		if c.RemoteStoreURL == "" {
			return errors.New("REMOTE_STORE_URL not set")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want local, postgres or remote)", c.StoreBackend)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote timeout must be positive, got %d", c.RemoteTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %d", c.SessionTTL)
	}
	if c.LoginRate < 0 {
		return fmt.Errorf("login rate must not be negative, got %d", c.LoginRate)
	}
	if (c.SeedAdmin.Username == "") != (c.SeedAdmin.Password == "") {
		return errors.New("seed admin needs both a username and a password")
	}
	return nil
}

func (c *Config) RemoteTimeoutDuration() time.Duration {
	return time.Duration(c.RemoteTimeout) * time.Second
}

func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Hour
}
