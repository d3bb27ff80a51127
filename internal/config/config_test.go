package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PPTX_ADDR", "PPTX_DATA_DIR", "PPTX_DB_PATH", "PPTX_STATIC_DIR",
		"PPTX_LOG_LEVEL", "PPTX_JOB_TTL", "PPTX_CLEANUP_INTERVAL",
		"PPTX_MAX_UPLOAD_BYTES", "PPTX_NODE_ID", "GOOGLE_APPLICATION_CREDENTIALS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, "data/pptxtrans.db", cfg.DBPath)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, DefaultJobTTL, cfg.JobTTL)
	require.Equal(t, time.Hour, cfg.CleanupInterval)
	require.Equal(t, DefaultMaxUploadBytes, cfg.MaxUploadBytes)
	require.Equal(t, int64(0), cfg.SnowflakeNode)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PPTX_ADDR", ":9090")
	t.Setenv("PPTX_DATA_DIR", "/var/lib/pptxtrans")
	t.Setenv("PPTX_DB_PATH", "")
	t.Setenv("PPTX_JOB_TTL", "48h")
	t.Setenv("PPTX_CLEANUP_INTERVAL", "30m")
	t.Setenv("PPTX_MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("PPTX_NODE_ID", "3")

	cfg := Load()
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, "/var/lib/pptxtrans", cfg.DataDir)
	require.Equal(t, "/var/lib/pptxtrans/pptxtrans.db", cfg.DBPath)
	require.Equal(t, 48*time.Hour, cfg.JobTTL)
	require.Equal(t, 30*time.Minute, cfg.CleanupInterval)
	require.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	require.Equal(t, int64(3), cfg.SnowflakeNode)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PPTX_JOB_TTL", "not-a-duration")
	t.Setenv("PPTX_CLEANUP_INTERVAL", "-5m")
	t.Setenv("PPTX_MAX_UPLOAD_BYTES", "lots")

	cfg := Load()
	require.Equal(t, DefaultJobTTL, cfg.JobTTL)
	require.Equal(t, time.Hour, cfg.CleanupInterval)
	require.Equal(t, DefaultMaxUploadBytes, cfg.MaxUploadBytes)
}
