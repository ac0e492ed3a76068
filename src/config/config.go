package config

import (
	cryptoRand "crypto/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/khabaroff/roster-console/src/pipeline"
)

// envPaths are the .env files tried in order; the first one found is loaded.
// Variables already set in the environment win over the file.
var envPaths = []string{".env", "../.env"}

// Config holds application configuration
type Config struct {
	Port           int
	AllowedOrigins string
	LogLevel       string
	LogFormat      string

	// User-management backend
	BackendURL     string
	BackendTimeout time.Duration
	BackendRoutes  string // optional YAML file overriding endpoint paths

	// Console sessions
	JWTSecret    string
	SealKey      string // 64 hex chars = 32 bytes XChaCha20-Poly1305 key; empty = random per process
	SessionTTL   time.Duration
	IdleTimeout  time.Duration
	SecureCookie bool

	// Notification log: PostgreSQL when DatabaseURL is set, else Redis when
	// RedisURL is set, else memory
	DatabaseURL           string
	DatabaseMaxConns      int32
	RedisURL              string
	NotificationRetention time.Duration

	// History feed
	HistoryLoadLimit  int
	HistoryExhaustion string
	ActionCatalog     string // optional YAML file overriding the built-in catalog

	// Rate limits
	LoginRatePerMinute    int
	MutationRatePerMinute int
}

// Load loads configuration from environment variables
func Load() *Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		BackendRoutes:  getEnv("BACKEND_ROUTES", ""),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		SealKey:      getEnv("SEAL_KEY", ""),
		SessionTTL:   getEnvDuration("SESSION_TTL", 24*time.Hour),
		IdleTimeout:  getEnvDuration("IDLE_TIMEOUT", 2*time.Hour),
		SecureCookie: getEnvBool("SECURE_COOKIE", false),

		DatabaseURL:           getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:      int32(getEnvInt("DATABASE_MAX_CONNS", 10)),
		RedisURL:              getEnv("REDIS_URL", ""),
		NotificationRetention: getEnvDuration("NOTIFICATION_RETENTION", 7*24*time.Hour),

		HistoryLoadLimit:  getEnvInt("HISTORY_LOAD_LIMIT", pipeline.DefaultLoadLimit),
		HistoryExhaustion: getEnv("HISTORY_EXHAUSTION", string(pipeline.ExhaustAfterLoads)),
		ActionCatalog:     getEnv("ACTION_CATALOG", ""),

		LoginRatePerMinute:    getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		MutationRatePerMinute: getEnvInt("MUTATION_RATE_PER_MINUTE", 120),
	}

	// Generate JWT secret if not provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = generateRandomSecret(32)
	}

	return cfg
}

// FeedConfig returns the history feed exhaustion settings. Unknown policies
// fall back to the load limit.
func (c *Config) FeedConfig() pipeline.AccumulatorConfig {
	policy := pipeline.ExhaustionPolicy(c.HistoryExhaustion)
	if policy != pipeline.ExhaustFromPagination {
		policy = pipeline.ExhaustAfterLoads
	}
	return pipeline.AccumulatorConfig{
		LoadLimit: c.HistoryLoadLimit,
		Policy:    policy,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// generateRandomSecret generates a cryptographically secure random secret for JWT signing
func generateRandomSecret(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	if _, err := cryptoRand.Read(result); err != nil {
		panic("failed to generate random secret: " + err.Error())
	}
	for i := range result {
		result[i] = charset[result[i]%byte(len(charset))]
	}
	return string(result)
}
