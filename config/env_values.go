package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"querypilot/internal/constants"
)

type Environment struct {
	// Server configs
	IsDocker          bool
	Port              string
	Environment       string
	CorsAllowedOrigin string

	// Pool configs
	PoolMaxClients      int
	PoolAcquireTimeout  time.Duration
	PoolIdleTimeout     time.Duration
	PoolCleanupInterval time.Duration

	// Cache configs
	CacheEnabled         bool
	CacheMaxSize         int
	CacheMaxRows         int
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration

	// Redis configs (optional cache backend)
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string

	// Retry configs
	RetryMaxAttempts       int
	RetryInitialDelay      time.Duration
	RetryMaxDelay          time.Duration
	RetryBackoffMultiplier float64

	// Schema reduction configs
	SchemaReductionEnabled    bool
	SchemaReductionMaxTables  int
	SchemaReductionIncludeFKs bool

	// LLM configs
	DefaultLLMClient string
	LLMValidateSQL   bool

	// OpenAI configs
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIMaxTokens   int
	OpenAITemperature float64

	// Gemini configs
	GeminiAPIKey      string
	GeminiModel       string
	GeminiMaxTokens   int
	GeminiTemperature float64
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates required variables
func LoadEnv() error {
	// Check if running in Docker
	Env.IsDocker = os.Getenv("IS_DOCKER") == "true"

	// Load .env file only if not running in Docker
	if !Env.IsDocker {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: .env file not found: %v\n", err)
		}
	}

	// Server configs
	Env.Port = getEnvWithDefault("PORT", "3000")
	Env.Environment = getEnvWithDefault("ENVIRONMENT", "DEVELOPMENT")
	Env.CorsAllowedOrigin = getEnvWithDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	// Pool configs
	Env.PoolMaxClients = getIntEnvWithDefault("POOL_MAX_CLIENTS", 10)
	Env.PoolAcquireTimeout = getDurationEnvWithDefault("POOL_ACQUIRE_TIMEOUT_MS", 10*time.Second)
	Env.PoolIdleTimeout = getDurationEnvWithDefault("POOL_IDLE_TIMEOUT_MS", time.Hour)
	Env.PoolCleanupInterval = getDurationEnvWithDefault("POOL_CLEANUP_INTERVAL_MS", time.Hour)

	// Cache configs
	Env.CacheEnabled = getEnvWithDefault("CACHE_ENABLED", "true") == "true"
	Env.CacheMaxSize = getIntEnvWithDefault("CACHE_MAX_SIZE", 100)
	Env.CacheMaxRows = getIntEnvWithDefault("CACHE_MAX_ROWS", 1000)
	Env.CacheTTL = getDurationEnvWithDefault("CACHE_TTL_MS", 5*time.Minute)
	Env.CacheCleanupInterval = getDurationEnvWithDefault("CACHE_CLEANUP_INTERVAL_MS", 10*time.Minute)

	// Redis configs (empty host keeps the in-memory store)
	Env.RedisHost = getEnvWithDefault("QUERYPILOT_REDIS_HOST", "")
	Env.RedisPort = getEnvWithDefault("QUERYPILOT_REDIS_PORT", "6379")
	Env.RedisUsername = getEnvWithDefault("QUERYPILOT_REDIS_USERNAME", "")
	Env.RedisPassword = getEnvWithDefault("QUERYPILOT_REDIS_PASSWORD", "")

	// Retry configs
	Env.RetryMaxAttempts = getIntEnvWithDefault("RETRY_MAX_ATTEMPTS", 3)
	Env.RetryInitialDelay = getDurationEnvWithDefault("RETRY_INITIAL_DELAY_MS", 500*time.Millisecond)
	Env.RetryMaxDelay = getDurationEnvWithDefault("RETRY_MAX_DELAY_MS", 10*time.Second)
	Env.RetryBackoffMultiplier = getFloatEnvWithDefault("RETRY_BACKOFF_MULTIPLIER", 2.0)

	// Schema reduction configs
	Env.SchemaReductionEnabled = getEnvWithDefault("SCHEMA_REDUCTION_ENABLED", "true") == "true"
	Env.SchemaReductionMaxTables = getIntEnvWithDefault("SCHEMA_REDUCTION_MAX_TABLES", 10)
	Env.SchemaReductionIncludeFKs = getEnvWithDefault("SCHEMA_REDUCTION_INCLUDE_FKS", "false") == "true"

	// LLM configs
	Env.DefaultLLMClient = getEnvWithDefault("DEFAULT_LLM_CLIENT", constants.Deterministic)
	Env.LLMValidateSQL = getEnvWithDefault("LLM_VALIDATE_SQL", "true") == "true"

	// OpenAI configs
	Env.OpenAIAPIKey = getEnvWithDefault("OPENAI_API_KEY", "")
	Env.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", constants.OpenAIModel)
	Env.OpenAIMaxTokens = getIntEnvWithDefault("OPENAI_MAX_COMPLETION_TOKENS", constants.OpenAIMaxTokens)
	Env.OpenAITemperature = getFloatEnvWithDefault("OPENAI_TEMPERATURE", constants.LLMTemperature)

	// Gemini configs
	Env.GeminiAPIKey = getEnvWithDefault("GEMINI_API_KEY", "")
	Env.GeminiModel = getEnvWithDefault("GEMINI_MODEL", constants.GeminiModel)
	Env.GeminiMaxTokens = getIntEnvWithDefault("GEMINI_MAX_COMPLETION_TOKENS", constants.GeminiMaxTokens)
	Env.GeminiTemperature = getFloatEnvWithDefault("GEMINI_TEMPERATURE", constants.LLMTemperature)

	return validateConfig()
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %g\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	ms, err := strconv.Atoi(strValue)
	if err != nil || ms <= 0 {
		fmt.Printf("Warning: Invalid value for %s, using default: %v\n", key, defaultValue)
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

func validateConfig() error {
	if Env.RetryMaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive, got: %d", Env.RetryMaxAttempts)
	}
	if Env.RetryBackoffMultiplier <= 1 {
		return fmt.Errorf("RETRY_BACKOFF_MULTIPLIER must be greater than 1, got: %g", Env.RetryBackoffMultiplier)
	}

	switch Env.DefaultLLMClient {
	case constants.OpenAI:
		if Env.OpenAIAPIKey == "" {
			fmt.Println("Warning: OPENAI_API_KEY not set, falling back to deterministic generation")
			Env.DefaultLLMClient = constants.Deterministic
		}
	case constants.Gemini:
		if Env.GeminiAPIKey == "" {
			fmt.Println("Warning: GEMINI_API_KEY not set, falling back to deterministic generation")
			Env.DefaultLLMClient = constants.Deterministic
		}
	case constants.Deterministic:
	default:
		return fmt.Errorf("unsupported DEFAULT_LLM_CLIENT: %s", Env.DefaultLLMClient)
	}

	return nil
}
