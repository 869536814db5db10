package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Port    string
	BaseURL string

	DBDriver       string // mysql, postgres or sqlite
	DBDSN          string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnLifetime time.Duration
	DBDebug        bool
	DBConnectTries int
	DBConnectPause time.Duration

	JWTSecret            []byte
	TokenTTL             time.Duration
	LicenseEncryptionKey string
	LicenseIssuerKey     string

	AllowRegistration bool
	CORSOrigins       []string
	LowStockThreshold int

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		BaseURL:              getEnv("BASE_URL", "http://localhost:8080"),
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:                os.Getenv("DB_DSN"),
		DBMaxOpenConns:       getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       getInt("DB_MAX_IDLE_CONNS", 10),
		DBConnLifetime:       time.Duration(getInt("DB_CONN_LIFETIME_MINUTES", 30)) * time.Minute,
		DBDebug:              os.Getenv("DB_DEBUG") == "true",
		DBConnectTries:       getInt("DB_CONNECT_TRIES", 5),
		DBConnectPause:       2 * time.Second,
		JWTSecret:            []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:             24 * time.Hour,
		LicenseEncryptionKey: os.Getenv("LICENSE_ENCRYPTION_KEY"),
		LicenseIssuerKey:     os.Getenv("LICENSE_ISSUER_KEY"),
		AllowRegistration:    os.Getenv("ALLOW_REGISTRATION") == "true",
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		LowStockThreshold:    getInt("LOW_STOCK_THRESHOLD", 5),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing setting the server cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.DBDSN == "":
		return errors.New("config: DB_DSN not set")
	case len(c.JWTSecret) < 16:
		return errors.New("config: JWT_SECRET must be at least 16 bytes")
	case c.LicenseEncryptionKey == "":
		return errors.New("config: LICENSE_ENCRYPTION_KEY not set")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return errors.New("config: DB_DRIVER must be mysql, postgres or sqlite")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
