package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devJWTSecret is used when REX_JWT_SECRET is unset. It is fine for local
// development and must never reach production; Load warns when it is active.
const devJWTSecret = "rex-dev-secret-do-not-use-in-production"

type Config struct {
	Port   string
	DBPath string
	Env    string

	JWTSecret string
	TokenTTL  time.Duration

	AllowedOrigins []string

	RateLimit  int
	RateWindow time.Duration

	LogLevel string

	Backup BackupConfig
}

// BackupConfig configures encrypted database snapshots to S3-compatible
// storage. Backups stay disabled until bucket, credentials, and passphrase
// are all set.
type BackupConfig struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Passphrase    string
	Hour          int
	RetentionDays int
}

// Load builds the configuration from the environment, reading a .env file
// first when one exists. Missing values fall back to development defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("REX_PORT", "8080"),
		DBPath:    getEnv("REX_DB_PATH", "rex.db"),
		Env:       getEnv("REX_ENV", "development"),
		JWTSecret: getEnv("REX_JWT_SECRET", devJWTSecret),
		TokenTTL:  getEnvDuration("REX_TOKEN_TTL", 24*time.Hour),

		RateLimit:  getEnvInt("REX_RATE_LIMIT", 10),
		RateWindow: getEnvDuration("REX_RATE_WINDOW", time.Minute),

		LogLevel: getEnv("REX_LOG_LEVEL", "info"),

		Backup: BackupConfig{
			Bucket:        getEnv("REX_BACKUP_BUCKET", ""),
			Endpoint:      getEnv("REX_BACKUP_ENDPOINT", ""),
			Region:        getEnv("REX_BACKUP_REGION", "us-east-1"),
			AccessKey:     getEnv("REX_BACKUP_ACCESS_KEY", ""),
			SecretKey:     getEnv("REX_BACKUP_SECRET_KEY", ""),
			Passphrase:    getEnv("REX_BACKUP_PASSPHRASE", ""),
			Hour:          getEnvInt("REX_BACKUP_HOUR", 3),
			RetentionDays: getEnvInt("REX_BACKUP_RETENTION_DAYS", 30),
		},
	}

	origins := getEnv("REX_ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Production() {
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("REX_JWT_SECRET must be set in production")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("REX_JWT_SECRET must be at least 32 characters in production")
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("REX_TOKEN_TTL must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("REX_RATE_LIMIT must be positive")
	}
	return nil
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// InsecureDefaults reports whether the process is running on the built-in
// development secret, so the caller can log a warning at startup.
func (c *Config) InsecureDefaults() bool {
	return c.JWTSecret == devJWTSecret
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
