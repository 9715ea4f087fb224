package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdfhound/pdfhound/internal/detector"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "downloads", cfg.OutputDir)
	require.Equal(t, 3, cfg.MaxDepth)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, int64(100<<20), cfg.MaxFileBytes)
	require.True(t, cfg.RespectRobots)
	require.True(t, cfg.VerifyTLS)
	require.Equal(t, "conservative", cfg.Mode)
	require.Equal(t, detector.ModeConservative, cfg.DetectionMode())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: https://example.com
max_depth: 5
mode: aggressive
crawl_delay: 2s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.com", cfg.Seed)
	require.Equal(t, 5, cfg.MaxDepth)
	require.Equal(t, detector.ModeAggressive, cfg.DetectionMode())
	require.Equal(t, 2*time.Second, cfg.CrawlDelay)
	// Untouched keys keep their defaults.
	require.Equal(t, "downloads", cfg.OutputDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PDFHOUND_SEED", "https://env.example.com")
	t.Setenv("PDFHOUND_MAX_DEPTH", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.Seed)
	require.Equal(t, 7, cfg.MaxDepth)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid, err := Load("")
	require.NoError(t, err)
	valid.Seed = "https://example.com"
	require.NoError(t, valid.Validate())

	missingSeed := valid
	missingSeed.Seed = " "
	require.Error(t, missingSeed.Validate())

	badTimeout := valid
	badTimeout.Timeout = 0
	require.Error(t, badTimeout.Validate())

	badSize := valid
	badSize.MaxFileBytes = -1
	require.Error(t, badSize.Validate())

	badMode := valid
	badMode.Mode = "paranoid"
	require.Error(t, badMode.Validate())
}
