package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the API process needs at startup.
type Config struct {
	Port               int
	JWTSecret          string
	CORSAllowedOrigins []string
	Database           Database
}

// Database describes how to reach PostgreSQL and how the pool behaves.
type Database struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Name         string
	Schema       string
	SSLMode      string
	LogLevel     string
	QueryTimeout time.Duration
	Migrate      bool
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	migrate, err := getEnvBool("DB_MIGRATE", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               port,
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "https://*,http://*")),
		Database: Database{
			Host:         getEnv("BLUEPRINT_DB_HOST", "localhost"),
			Port:         getEnv("BLUEPRINT_DB_PORT", "5432"),
			Username:     getEnv("BLUEPRINT_DB_USERNAME", "postgres"),
			Password:     getEnv("BLUEPRINT_DB_PASSWORD", ""),
			Name:         getEnv("BLUEPRINT_DB_DATABASE", "todos"),
			Schema:       getEnv("BLUEPRINT_DB_SCHEMA", "public"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			LogLevel:     strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
			QueryTimeout: timeout,
			Migrate:      migrate,
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

// URL renders the connection settings as a postgres:// URL understood by
// both pgx and golang-migrate.
func (d Database) URL() string {
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	if d.Schema != "" {
		q.Set("search_path", d.Schema)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
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
