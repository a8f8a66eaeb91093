// Package config reads server settings from the environment.
//
// A .env file in the working directory is loaded first if present, so
// local development does not need exported variables. Real environment
// variables always win over the file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Elizabethomito/skillswap/backend/internal/db"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultSecret = "changeme-use-a-real-secret-in-production"
)

// Config holds every runtime setting of the API server.
type Config struct {
	Addr string
	Env  string

	// DBDriver is "sqlite" or "postgres".
	DBDriver    string
	DatabaseURL string

	JWTSecret  string
	CORSOrigin string
	LogLevel   string

	// AuthRatePerMinute bounds signup/login attempts per client address.
	AuthRatePerMinute int
}

// Load builds a Config from the environment (and an optional .env file).
func Load() (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := Config{
		Addr:              getenv("ADDR", ":8080"),
		Env:               strings.ToLower(getenv("APP_ENV", EnvDevelopment)),
		DBDriver:          strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		JWTSecret:         getenv("JWT_SECRET", defaultSecret),
		CORSOrigin:        getenv("CORS_ORIGIN", "*"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		AuthRatePerMinute: getenvInt("AUTH_RATE_PER_MINUTE", 20),
	}

	cfg.DatabaseURL = getenv("DATABASE_URL", "")
	if cfg.DatabaseURL == "" && cfg.DBDriver == db.DriverSQLite {
		cfg.DatabaseURL = db.FileDSN("skillswap.db")
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that would make the server unsafe or unable to start.
func (c Config) Validate() error {
	var errs []error
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, errors.New("APP_ENV must be 'development' or 'production'"))
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		errs = append(errs, errors.New("DB_DRIVER must be 'sqlite' or 'postgres'"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Env == EnvProduction && (c.JWTSecret == "" || c.JWTSecret == defaultSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.AuthRatePerMinute <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// getenv returns the value of the named environment variable, or fallback
// if the variable is not set or is empty.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
