package config

import (
	"testing"
	"time"
)

// clearEnv blanks every REX_ variable the loader reads so tests see only
// what they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"REX_PORT", "REX_DB_PATH", "REX_ENV", "REX_JWT_SECRET", "REX_TOKEN_TTL",
		"REX_ALLOWED_ORIGINS", "REX_RATE_LIMIT", "REX_RATE_WINDOW", "REX_LOG_LEVEL",
		"REX_BACKUP_BUCKET", "REX_BACKUP_ENDPOINT", "REX_BACKUP_REGION",
		"REX_BACKUP_ACCESS_KEY", "REX_BACKUP_SECRET_KEY", "REX_BACKUP_PASSPHRASE",
		"REX_BACKUP_HOUR", "REX_BACKUP_RETENTION_DAYS",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.RateLimit != 10 || cfg.RateWindow != time.Minute {
		t.Errorf("rate limit = %d/%v, want 10/1m", cfg.RateLimit, cfg.RateWindow)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.Production() {
		t.Error("default env reported as production")
	}
	if !cfg.InsecureDefaults() {
		t.Error("dev secret not flagged insecure")
	}
	if cfg.Backup.Hour != 3 || cfg.Backup.RetentionDays != 30 {
		t.Errorf("backup schedule = %d/%d, want 3/30", cfg.Backup.Hour, cfg.Backup.RetentionDays)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REX_PORT", "9090")
	t.Setenv("REX_TOKEN_TTL", "30m")
	t.Setenv("REX_RATE_LIMIT", "5")
	t.Setenv("REX_ALLOWED_ORIGINS", "https://rex.example.com, https://staging.example.com ,")
	t.Setenv("REX_JWT_SECRET", "a-real-secret-of-sufficient-length!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("token ttl = %v, want 30m", cfg.TokenTTL)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("rate limit = %d, want 5", cfg.RateLimit)
	}
	want := []string{"https://rex.example.com", "https://staging.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("origins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("origin[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
	if cfg.InsecureDefaults() {
		t.Error("real secret flagged insecure")
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("REX_RATE_LIMIT", "lots")
	t.Setenv("REX_TOKEN_TTL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("rate limit = %d, want default 10", cfg.RateLimit)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v, want default 24h", cfg.TokenTTL)
	}
}

func TestValidateProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("REX_ENV", "production")

	if _, err := Load(); err == nil {
		t.Error("production with dev secret should fail")
	}

	t.Setenv("REX_JWT_SECRET", "short")
	if _, err := Load(); err == nil {
		t.Error("production with short secret should fail")
	}

	t.Setenv("REX_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Production() {
		t.Error("production env not reported")
	}
}
