package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Firebase  FirebaseConfig
	Notify    NotifyConfig
	Claims    ClaimsConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

type NotifyConfig struct {
	// BaseURL of the notify relay. Empty disables dispatch.
	BaseURL string
	// ServiceTokenSecret signs backend-to-relay tokens.
	ServiceTokenSecret string
	ServiceTokenTTL    time.Duration
}

type ClaimsConfig struct {
	// MinProofLen is the minimum trimmed proof text length for a claim.
	MinProofLen int
	// MinSecretLen is the minimum hidden proof detail length for a
	// reported lost item.
	MinSecretLen int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json"),
		},
		Notify: NotifyConfig{
			BaseURL:            getEnv("NOTIFY_BASE_URL", ""),
			ServiceTokenSecret: getEnv("SERVICE_TOKEN_SECRET", "dev-secret-key"),
			ServiceTokenTTL:    parseDuration(getEnv("SERVICE_TOKEN_TTL", "5m"), 5*time.Minute),
		},
		Claims: ClaimsConfig{
			MinProofLen:  parseInt(getEnv("MIN_PROOF_LEN", "12"), 12),
			MinSecretLen: parseInt(getEnv("MIN_SECRET_LEN", "8"), 8),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		RateLimit: RateLimitConfig{
			Requests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:   parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// A bare number means seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) Validate() {
	if c.Firebase.ProjectID == "" {
		log.Fatal("FIREBASE_PROJECT_ID must be set")
	}
	if _, err := os.Stat(c.Firebase.CredentialsPath); os.IsNotExist(err) {
		log.Fatalf("Firebase credentials file not found: %s", c.Firebase.CredentialsPath)
	}
	if c.Notify.ServiceTokenSecret == "dev-secret-key" && c.IsProduction() {
		log.Fatal("SERVICE_TOKEN_SECRET must be set in production")
	}
}
