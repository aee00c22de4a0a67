package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	WatchDir            string
	SupportedExtensions []string
	ChunkSize           int
	ChunkOverlap        int
	ScanInterval        time.Duration
	StopTimeout         time.Duration
	TopK                int
	WatchAutostart      bool
	WatchNotify         bool

	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
	EmbeddingCacheSize int

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// VectorEnabled reports whether both vector collaborators are configured.
func (c *Config) VectorEnabled() bool {
	return c.EmbeddingBaseURL != "" && c.QdrantURL != ""
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the values.
// If a .env file exists in the current directory or up to five parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		WatchDir:            getEnv("WATCH_DIR", "./uploads"),
		SupportedExtensions: splitList(getEnv("SUPPORTED_EXTENSIONS", ".txt,.md,.pdf,.docx")),
		EmbeddingBaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingModelName:  getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),
		EmbeddingAPIKey:     getEnv("EMBEDDING_API_KEY", "dummy-key"),
		QdrantURL:           os.Getenv("QDRANT_URL"),
		QdrantCollection:    getEnv("QDRANT_COLLECTION", "knowledge_base"),
		APIPort:             getEnv("API_PORT", "8000"),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.ChunkSize, err = getPositiveInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE-1, got %d", cfg.ChunkOverlap)
	}
	if cfg.TopK, err = getPositiveInt("TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.EmbeddingCacheSize, err = getInt("EMBEDDING_CACHE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.QdrantVectorSize, err = getPositiveInt("QDRANT_VECTOR_SIZE", 384); err != nil {
		return nil, err
	}

	interval, err := getPositiveInt("SCAN_INTERVAL_SECONDS", 2)
	if err != nil {
		return nil, err
	}
	cfg.ScanInterval = time.Duration(interval) * time.Second

	stopTimeout, err := getPositiveInt("STOP_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cfg.StopTimeout = time.Duration(stopTimeout) * time.Second

	if cfg.WatchAutostart, err = getBool("WATCH_AUTOSTART", true); err != nil {
		return nil, err
	}
	if cfg.WatchNotify, err = getBool("WATCH_FSNOTIFY", true); err != nil {
		return nil, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if len(cfg.SupportedExtensions) == 0 {
		return nil, fmt.Errorf("SUPPORTED_EXTENSIONS must list at least one extension")
	}

	// Create the watched directory if it doesn't exist
	if err := os.MkdirAll(cfg.WatchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, looking in the working directory and up to five parents.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	v, err := getInt(key, defaultValue)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
