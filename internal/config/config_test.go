package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{" 2h ", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"soon", time.Hour},
		{"", time.Hour},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, time.Hour); got != tt.want {
			t.Errorf("parseDuration(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "youvoice", DBSSLMode: "disable", DBPath: "data.db"}

	cfg.DBDialect = "postgres"
	if dsn := cfg.DSN(); !strings.Contains(dsn, "host=db") || !strings.Contains(dsn, "dbname=youvoice") || !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("unexpected postgres DSN: %s", dsn)
	}

	cfg.DBDialect, cfg.DBPort = "mysql", "3306"
	if dsn := cfg.DSN(); dsn != "u:p@tcp(db:3306)/youvoice?charset=utf8mb4&parseTime=True&loc=UTC" {
		t.Errorf("unexpected mysql DSN: %s", dsn)
	}

	cfg.DBDialect = "sqlite"
	if dsn := cfg.DSN(); dsn != "data.db?_pragma=foreign_keys(1)" {
		t.Errorf("unexpected sqlite DSN: %s", dsn)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "2d")
	t.Setenv("DB_DIALECT", "SQLite")
	t.Setenv("MAX_FILE_SIZE", "1024")

	cfg := Load()
	if cfg.JWTSecret != "s3cret" || cfg.JWTExpiresIn != 48*time.Hour {
		t.Errorf("unexpected JWT settings: %q %s", cfg.JWTSecret, cfg.JWTExpiresIn)
	}
	if cfg.DBDialect != "sqlite" || cfg.MaxFileSize != 1024 {
		t.Errorf("unexpected settings: dialect=%s max=%d", cfg.DBDialect, cfg.MaxFileSize)
	}
	if cfg.SocketPath != "/socket" || cfg.RateLimitWindow != 15*time.Minute {
		t.Errorf("unexpected defaults: path=%s window=%s", cfg.SocketPath, cfg.RateLimitWindow)
	}
}
