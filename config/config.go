// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the whole service configuration
type Config struct {
	Port        string
	Environment string // development, production
	LogLevel    string // debug, info, warn, error

	Store  StoreConfig
	Auth   AuthConfig
	Sheets SheetsConfig
	CORS   CORSConfig
	Import ImportConfig

	SeedDemo bool // add a demo course when the store is empty
}

// StoreConfig selects where the course snapshot lives
type StoreConfig struct {
	Backend        string // redis or bolt
	Key            string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	BoltPath       string
	ResetOnCorrupt bool // start empty instead of exiting on an unreadable snapshot
}

// AuthConfig holds the shared teacher secret. It is a single per-deployment
// password, not a user system.
type AuthConfig struct {
	TeacherPassword     string
	TeacherPasswordHash string // bcrypt; takes precedence over TeacherPassword
	SessionSecret       string
	SessionMaxAge       time.Duration
	SecureCookie        bool
}

// SheetsConfig points at the published course sheets
type SheetsConfig struct {
	CoursesFile  string
	FetchTimeout time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// ImportConfig bounds file uploads
type ImportConfig struct {
	MaxUploadBytes int64
}

// LoadEnv loads environment variables from an env file when it exists.
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("%s not loaded, using process environment: %w", envFile, err)
	}
	return nil
}

// Load builds the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        GetEnv("PORT", "8080"),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		Store: StoreConfig{
			Backend:        strings.ToLower(GetEnv("STORE_BACKEND", "redis")),
			Key:            GetEnv("STORE_KEY", "grades:courses"),
			RedisAddr:      GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
			RedisPassword:  GetEnv("REDIS_PASSWORD", ""),
			RedisDB:        GetIntEnv("REDIS_DB", 0),
			BoltPath:       GetEnv("BOLT_PATH", "data/grades.db"),
			ResetOnCorrupt: GetBoolEnv("STORE_RESET_ON_CORRUPT", false),
		},
		Auth: AuthConfig{
			TeacherPassword:     GetEnv("TEACHER_PASSWORD", ""),
			TeacherPasswordHash: GetEnv("TEACHER_PASSWORD_HASH", ""),
			SessionSecret:       GetEnv("SESSION_SECRET", ""),
			SessionMaxAge:       GetDurationEnv("SESSION_MAX_AGE", 12*time.Hour),
			SecureCookie:        GetBoolEnv("SESSION_SECURE_COOKIE", false),
		},
		Sheets: SheetsConfig{
			CoursesFile:  GetEnv("COURSES_FILE", "courses.yaml"),
			FetchTimeout: GetDurationEnv("SHEET_FETCH_TIMEOUT", 10*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Import: ImportConfig{
			MaxUploadBytes: int64(GetIntEnv("MAX_UPLOAD_BYTES", 5<<20)),
		},
		SeedDemo: GetBoolEnv("SEED_DEMO", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for required values.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	switch c.Store.Backend {
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case "bolt":
		if c.Store.BoltPath == "" {
			return errors.New("BOLT_PATH is required for the bolt store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want redis or bolt)", c.Store.Backend)
	}
	if c.Auth.TeacherPassword == "" && c.Auth.TeacherPasswordHash == "" {
		return errors.New("TEACHER_PASSWORD or TEACHER_PASSWORD_HASH is required")
	}
	if c.Sheets.FetchTimeout <= 0 {
		return errors.New("SHEET_FETCH_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PasswordHash returns the bcrypt hash of the teacher password, hashing the
// plaintext value when no hash was configured.
func (c *Config) PasswordHash() ([]byte, error) {
	if c.Auth.TeacherPasswordHash != "" {
		return []byte(c.Auth.TeacherPasswordHash), nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Auth.TeacherPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash teacher password: %w", err)
	}
	return hash, nil
}

// NewLogger builds the zap logger for the configured environment and level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// LogFields summarizes the configuration without secrets.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("environment", c.Environment),
		zap.String("store", c.Store.Backend),
		zap.String("storeKey", c.Store.Key),
		zap.String("coursesFile", c.Sheets.CoursesFile),
		zap.Duration("fetchTimeout", c.Sheets.FetchTimeout),
		zap.Strings("corsOrigins", c.CORS.AllowedOrigins),
		zap.Bool("seedDemo", c.SeedDemo),
	}
}

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(GetEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetDurationEnv retrieves a duration such as "30s" or "5m", or returns a default value
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(GetEnv(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetStringSliceEnv retrieves a comma-separated list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
