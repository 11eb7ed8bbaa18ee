package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Server struct {
		Port      string
		GinMode   string
		LogLevel  string
		LogFormat string
	}

	Evidence struct {
		Backend        string
		Dir            string
		MaxPhotoSize   int64
		MinioEndpoint  string
		MinioAccessKey string
		MinioSecretKey string
		MinioBucket    string
		MinioUseSSL    bool
	}

	Roster struct {
		FilePath  string
		Delimiter rune
	}

	Admin struct {
		Username     string
		Password     string
		PasswordHash string
		JWTSecret    string
		TokenTTL     time.Duration
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "postgres")
	config.DB.Password = getEnv("DB_PASSWORD", "admin")
	config.DB.Name = getEnv("DB_NAME", "cipa_marchesoni")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "5000")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")
	config.Server.LogLevel = getEnv("LOG_LEVEL", "info")
	config.Server.LogFormat = getEnv("LOG_FORMAT", "text")

	config.Evidence.Backend = getEnv("EVIDENCE_BACKEND", "local")
	config.Evidence.Dir = getEnv("UPLOADS_DIR", "static/uploads")
	config.Evidence.MaxPhotoSize = getEnvAsInt64("MAX_PHOTO_SIZE", 10485760)
	config.Evidence.MinioEndpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	config.Evidence.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", "")
	config.Evidence.MinioSecretKey = getEnv("MINIO_SECRET_KEY", "")
	config.Evidence.MinioBucket = getEnv("MINIO_BUCKET", "cipa-evidence")
	config.Evidence.MinioUseSSL = getEnvAsBool("MINIO_USE_SSL", false)

	config.Roster.FilePath = getEnv("ROSTER_FILE", "data/colaboradores.csv")
	config.Roster.Delimiter = getEnvAsRune("ROSTER_DELIMITER", ';')

	config.Admin.Username = getEnv("ADMIN_USERNAME", "admin")
	config.Admin.Password = getEnv("ADMIN_PASSWORD", "admin")
	config.Admin.PasswordHash = getEnv("ADMIN_PASSWORD_HASH", "")
	config.Admin.JWTSecret = getEnv("JWT_SECRET", "segredo_marchesoni_2026")
	config.Admin.TokenTTL = getEnvAsDuration("ADMIN_TOKEN_TTL", 8*time.Hour)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.Server.GinMode == "release"
}

// SplitList splits a comma separated config value, dropping empty entries
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsRune reads a single-character value such as a CSV delimiter
func getEnvAsRune(key string, defaultValue rune) rune {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == `\t` {
		return '\t'
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return defaultValue
	}
	return runes[0]
}
