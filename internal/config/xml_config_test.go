package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the override variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "ASSET_DIR", "LAYOUT_FILE", "LOG_LEVEL", "AUTHORIZING_OFFICER", "AUTHORIZING_TITLE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_CreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "assets"), cfg.Document.AssetDirectory)
	assert.Equal(t, "EDNA SANCHEZ MARTINEZ", cfg.Document.AuthorizingOfficer)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 5*time.Minute, cfg.KeepAlive())
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, 10*time.Minute, cfg.AssetCacheTTL())

	// second load reads the written file
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage, again.Storage)
	assert.Equal(t, cfg.Document, again.Document)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	content := `<?xml version="1.0" encoding="UTF-8"?>
<ValesResguardo>
  <Server><Port>9000</Port></Server>
  <Document>
    <LayoutFile>custom/layout.yaml</LayoutFile>
    <AuthorizingOfficer>OTRA PERSONA</AuthorizingOfficer>
  </Document>
</ValesResguardo>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "OTRA PERSONA", cfg.Document.AuthorizingOfficer)
	assert.Equal(t, filepath.Join(dir, "custom", "layout.yaml"), cfg.Document.LayoutFile)
	// elements absent from the file keep their defaults
	assert.Equal(t, "Coordinadora Administrativa", cfg.Document.AuthorizingTitle)
	assert.Equal(t, "50M", cfg.Storage.MaxUploadSize)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("ASSET_DIR", "/srv/assets")
	t.Setenv("AUTHORIZING_OFFICER", "JEFA DE AREA")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), DefaultConfigFile))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/srv/assets", cfg.Document.AssetDirectory)
	assert.Equal(t, "JEFA DE AREA", cfg.Document.AuthorizingOfficer)
	assert.Equal(t, "0.0.0.0:7070", cfg.GetServerAddr())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nAUTHORIZING_TITLE=Jefa de Recursos\n"), 0o644))

	cfg, err := LoadConfig(filepath.Join(dir, DefaultConfigFile))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, "Jefa de Recursos", cfg.Document.AuthorizingTitle)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)

	t.Run("malformed xml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("<ValesResguardo>"), 0o644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("bad size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `<ValesResguardo><Storage><MaxUploadSize>lots</MaxUploadSize></Storage></ValesResguardo>`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "MaxUploadSize")
	})
}

func TestSizesAndExtensions(t *testing.T) {
	cfg := DefaultConfig()

	upload, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, upload, int64(50_000_000))
	assert.LessOrEqual(t, upload, int64(50*1024*1024))

	cfg.Storage.MaxExtractedSize = ""
	extracted, err := cfg.MaxExtractedBytes()
	require.NoError(t, err)
	assert.Zero(t, extracted)

	cfg.Storage.AllowedFileTypes = ".XLSX, csv,,.gz"
	assert.Equal(t, []string{".xlsx", ".csv", ".gz"}, cfg.AllowedExtensions())
}
