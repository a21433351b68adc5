package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.Storage.UploadsDirectory)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<InsightStudio>")
	assert.Contains(t, string(data), "<Model>mixtral-8x7b-32768</Model>")
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	cfg := DefaultConfig()
	cfg.Rendering.MaxFPS = 48
	cfg.Advanced.LogLevel = "debug"
	require.NoError(t, cfg.Save(path))

	t.Setenv("PORT", "9001")
	t.Setenv("STUDIO_TEMP_DIR", "/tmp/studio")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg")
	t.Setenv("STUDIO_LLM_MODEL", "llama3-8b-8192")
	t.Setenv("STUDIO_SESSION_SECRET", "s3cret")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 48, loaded.Rendering.MaxFPS)
	assert.Equal(t, 9001, loaded.Server.Port)
	assert.Equal(t, "/tmp/studio", loaded.Storage.TempDirectory)
	assert.Equal(t, "/opt/ffmpeg", loaded.Rendering.FFmpegPath)
	assert.Equal(t, "llama3-8b-8192", loaded.LLM.Model)
	assert.Equal(t, "s3cret", loaded.Security.SessionSecret)
	assert.Equal(t, "0.0.0.0:9001", loaded.GetServerAddr())

	level, err := ParseLogLevel(loaded.Advanced.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("<InsightStudio><Rendering><MinFPS>30</MinFPS><MaxFPS>10</MaxFPS></Rendering></InsightStudio>"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "FPS bounds")

	require.NoError(t, os.WriteFile(path, []byte("<not xml"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Security.AllowedFileTypes = " .csv, ,.TXT "
	assert.Equal(t, []string{".csv", ".TXT"}, cfg.AllowedExtensions())
	assert.Equal(t, "30m0s", cfg.SessionTimeout().String())
	assert.Zero(t, cfg.LLMTimeout())

	cfg.Processing.CleanupIntervalMinutes = 0
	assert.Equal(t, "5m0s", cfg.CleanupInterval().String())

	_, err := ParseLogLevel("verbose")
	assert.True(t, strings.Contains(err.Error(), "verbose"))

	base := t.TempDir()
	cfg.Storage.DataDirectory = base
	cfg.Storage.UploadsDirectory = filepath.Join(base, "uploads")
	cfg.Storage.TempDirectory = filepath.Join(base, "temp")
	require.NoError(t, cfg.EnsureDirectories())
	_, err = os.Stat(cfg.Storage.UploadsDirectory)
	assert.NoError(t, err)
}
