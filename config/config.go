package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Media storage. When S3Bucket is empty images are written under MediaRoot.
	S3Bucket  string
	AWSRegion string
	MediaRoot string
	MediaURL  string

	LogMode             string
	RecipeCreationLimit int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := defaultConfig(env)

	// Load configuration based on environment
	switch env {
	case CI:
		loadEnvConfig(cfg)
	case Development, Test:
		loadEnvConfig(cfg)
		loadSecrets(cfg)
	case Production:
		loadEnvConfig(cfg)
		loadSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	// Validate the configuration
	if err := ValidateConfig(env, cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaultConfig(env Environment) *Config {
	cfg := &Config{
		ServerPort:          "8080",
		ServerHost:          "0.0.0.0",
		CORSOrigins:         []string{"http://localhost:3000"},
		DBDriver:            DriverPostgres,
		DBHost:              "localhost",
		DBPort:              "5432",
		DBUser:              "postgres",
		DBName:              "foodgram",
		DBSSLMode:           "disable",
		SQLitePath:          "foodgram.db",
		RedisHost:           "localhost",
		RedisPort:           "6379",
		TokenTTL:            24 * time.Hour,
		MediaRoot:           "media",
		MediaURL:            "/media/",
		LogMode:             "development",
		RecipeCreationLimit: 20,
	}
	switch env {
	case Development, Test:
		cfg.DBDriver = DriverSQLite
		cfg.JWTSecret = "insecure-development-secret"
	case Production:
		cfg.LogMode = "production"
	}
	return cfg
}

// loadEnvConfig overlays environment variables on top of the defaults
func loadEnvConfig(cfg *Config) {
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.ServerHost, "SERVER_HOST")
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSL_MODE")
	setString(&cfg.SQLitePath, "SQLITE_PATH")

	setString(&cfg.RedisHost, "REDIS_HOST")
	setString(&cfg.RedisPort, "REDIS_PORT")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.RedisURL, "REDIS_URL")
	if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil && db >= 0 {
		cfg.RedisDB = db
	}

	setString(&cfg.JWTSecret, "JWT_SECRET")
	if ttl, err := time.ParseDuration(os.Getenv("TOKEN_TTL")); err == nil && ttl > 0 {
		cfg.TokenTTL = ttl
	}

	setString(&cfg.S3Bucket, "S3_BUCKET_NAME")
	setString(&cfg.AWSRegion, "AWS_REGION")
	setString(&cfg.MediaRoot, "MEDIA_ROOT")
	setString(&cfg.MediaURL, "MEDIA_URL")

	setString(&cfg.LogMode, "LOG_MODE")
	if limit, err := strconv.Atoi(os.Getenv("RECIPE_CREATION_LIMIT")); err == nil && limit > 0 {
		cfg.RecipeCreationLimit = limit
	}
}

// loadSecrets overrides sensitive values with Docker secrets when they are present
func loadSecrets(cfg *Config) {
	secretFields := map[string]*string{
		"db_user":        &cfg.DBUser,
		"db_password":    &cfg.DBPassword,
		"db_host":        &cfg.DBHost,
		"db_port":        &cfg.DBPort,
		"db_name":        &cfg.DBName,
		"jwt_secret":     &cfg.JWTSecret,
		"redis_password": &cfg.RedisPassword,
		"redis_url":      &cfg.RedisURL,
	}
	for name, field := range secretFields {
		if value := readSecret(name); value != "" {
			*field = value
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// PostgresDSN returns the key/value connection string used by the gorm postgres driver
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// DatabaseURL returns the postgres:// URL form used by the migrator
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
