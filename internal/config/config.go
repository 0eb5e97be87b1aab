// internal/config/config.go
package config

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds the application configuration, loaded once from the
// environment (optionally seeded from a .env file).
type Config struct {
	Port         string
	GeminiAPIKey string
	DataDir      string

	// WorkCodeFile is the YAML outline + article texts consumed by the
	// structural lookup tools.
	WorkCodeFile string

	// VectorDB is the SQLite file backing the retrieval index.
	VectorDB string

	LLMModel       string
	EmbeddingModel string

	// Firebase App Check verification.
	FirebaseProjectNumber string
	FirebaseAppID         string
	AppCheckDisabled      bool

	DebugMode bool
}

var (
	currentConfig *Config
	configMutex   sync.RWMutex
)

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	// .env file is optional
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		DataDir:               getEnvPath("DATA_DIR", "data"),
		WorkCodeFile:          getEnv("WORKCODE_FILE", filepath.Join("data", "data.yaml")),
		VectorDB:              getEnv("VECTOR_DB", filepath.Join("data", "vectors.db")),
		LLMModel:              getEnv("LLM_MODEL", "gemini-2.5-flash-lite"),
		EmbeddingModel:        getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		FirebaseProjectNumber: getEnv("FIREBASE_PROJECT_NUMBER", ""),
		FirebaseAppID:         getEnv("FIREBASE_APP_ID", ""),
		AppCheckDisabled:      getEnvBool("APP_CHECK_DISABLED", false),
		DebugMode:             getEnvBool("DEBUG_MODE", true),
	}

	if cfg.GeminiAPIKey == "" {
		// Warn only; the server can still answer /health and the ingest
		// command can run against a prebuilt index.
		log.Println("warning: GEMINI_API_KEY not set, LLM and embedding calls will fail")
	}

	if cfg.FirebaseProjectNumber == "" && !cfg.AppCheckDisabled {
		log.Println("warning: FIREBASE_PROJECT_NUMBER not set, App Check verification will reject all tokens")
	}

	configMutex.Lock()
	currentConfig = cfg
	configMutex.Unlock()

	return cfg, nil
}

// GetCurrentConfig returns the last loaded configuration, loading it on
// first use.
func GetCurrentConfig() *Config {
	configMutex.RLock()
	cfg := currentConfig
	configMutex.RUnlock()

	if cfg != nil {
		cfgCopy := *cfg
		return &cfgCopy
	}

	cfg, _ = Load()
	cfgCopy := *cfg
	return &cfgCopy
}

// getEnv returns the environment variable or the default when unset
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath returns a directory path from the environment, creating it
// when missing
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Printf("warning: failed to create directory %s: %v", path, err)
		}
	}

	return path
}

// getEnvBool parses a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}
