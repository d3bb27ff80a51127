package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName    = "PPTX Translator Pro"
	AppVersion = "1.0.0"
)

// DefaultJobTTL is how long finished jobs and their files are kept.
const DefaultJobTTL = 24 * time.Hour

// DefaultMaxUploadBytes caps the size of an uploaded deck (50 MiB).
const DefaultMaxUploadBytes int64 = 50 << 20

type Config struct {
	Addr            string
	DBPath          string
	DataDir         string
	StaticDir       string
	LogLevel        string
	CredentialsFile string
	JobTTL          time.Duration
	CleanupInterval time.Duration
	MaxUploadBytes  int64
	SnowflakeNode   int64
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := os.Getenv("PPTX_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	dataDir := os.Getenv("PPTX_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	path := os.Getenv("PPTX_DB_PATH")
	if path == "" {
		path = filepath.Join(dataDir, "pptxtrans.db")
	}
	staticDir := os.Getenv("PPTX_STATIC_DIR")
	if staticDir == "" {
		staticDir = detectStaticDir()
	}
	logLevel := os.Getenv("PPTX_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return Config{
		Addr:            addr,
		DBPath:          filepath.Clean(path),
		DataDir:         filepath.Clean(dataDir),
		StaticDir:       filepath.Clean(staticDir),
		LogLevel:        logLevel,
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		JobTTL:          durationEnv("PPTX_JOB_TTL", DefaultJobTTL),
		CleanupInterval: durationEnv("PPTX_CLEANUP_INTERVAL", time.Hour),
		MaxUploadBytes:  int64Env("PPTX_MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		SnowflakeNode:   int64Env("PPTX_NODE_ID", 0),
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func int64Env(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func detectStaticDir() string {
	candidates := []string{
		"./frontend/dist",
		"../frontend/dist",
	}
	for _, candidate := range candidates {
		indexPath := filepath.Join(candidate, "index.html")
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "./frontend/dist"
}
