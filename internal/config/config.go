package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv string

	// Database
	DBDialect  string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// JWT
	JWTSecret    string
	JWTExpiresIn time.Duration

	// Uploads
	UploadDir       string
	UploadURLPrefix string
	MaxFileSize     int
	MaxAvatarSize   int

	// Admin
	AdminEmails string

	// Server
	Port            string
	SocketPort      string
	SocketPath      string
	CORSOrigins     string
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Redis (optional, enables cross-instance socket fan-out)
	RedisAddr     string
	RedisPassword string

	SentryDSN        string
	LogRetentionDays int
}

func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		AppEnv: v.GetString("APP_ENV"),

		DBDialect:  strings.ToLower(v.GetString("DB_DIALECT")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		DBPath:     v.GetString("DB_PATH"),

		JWTSecret:    v.GetString("JWT_SECRET"),
		JWTExpiresIn: parseDuration(v.GetString("JWT_EXPIRES_IN"), time.Hour),

		UploadDir:       v.GetString("UPLOAD_DIR"),
		UploadURLPrefix: v.GetString("UPLOAD_URL_PREFIX"),
		MaxFileSize:     v.GetInt("MAX_FILE_SIZE"),
		MaxAvatarSize:   v.GetInt("MAX_AVATAR_SIZE"),

		AdminEmails: v.GetString("ADMIN_EMAILS"),

		Port:            v.GetString("PORT"),
		SocketPort:      v.GetString("SOCKET_PORT"),
		SocketPath:      v.GetString("SOCKET_PATH"),
		CORSOrigins:     v.GetString("CORS_ORIGIN"),
		RateLimitMax:    v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow: parseDuration(v.GetString("RATE_LIMIT_WINDOW"), 15*time.Minute),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		SentryDSN:        v.GetString("SENTRY_DSN"),
		LogRetentionDays: v.GetInt("LOG_RETENTION_DAYS"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_DIALECT", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "youvoice")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "youvoice.db")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_IN", "1h")

	v.SetDefault("UPLOAD_DIR", "public/uploads")
	v.SetDefault("UPLOAD_URL_PREFIX", "/uploads")
	v.SetDefault("MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("MAX_AVATAR_SIZE", 5*1024*1024)

	v.SetDefault("ADMIN_EMAILS", "")

	v.SetDefault("PORT", "5000")
	v.SetDefault("SOCKET_PORT", "5001")
	v.SetDefault("SOCKET_PATH", "/socket")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")

	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("LOG_RETENTION_DAYS", 30)
}

// DSN returns the driver connection string for the configured dialect.
func (c *Config) DSN() string {
	switch c.DBDialect {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	case "sqlite":
		return c.DBPath + "?_pragma=foreign_keys(1)"
	default:
		return "host=" + c.DBHost +
			" user=" + c.DBUser +
			" password=" + c.DBPassword +
			" dbname=" + c.DBName +
			" port=" + c.DBPort +
			" sslmode=" + c.DBSSLMode +
			" TimeZone=UTC"
	}
}

// parseDuration accepts Go durations plus a bare day suffix ("7d").
func parseDuration(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("invalid duration, using fallback", "value", s, "fallback", fallback.String())
		return fallback
	}
	return d
}
