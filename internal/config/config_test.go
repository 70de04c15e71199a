package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the load from an empty directory so a developer's local
// config.yaml never leaks into the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "rivalscan.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://api.dataforseo.com", cfg.DataForSEO.BaseURL)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.Equal(t, 10, cfg.Engine.CacheTTLMinutes)
	assert.Equal(t, 10, cfg.Engine.SERPDepth)
	assert.Equal(t, "United States", cfg.Engine.Location)
	assert.Equal(t, "en", cfg.Engine.Language)
	assert.Empty(t, cfg.DataForSEO.Login)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RIVALSCAN_SERVER_PORT", "9090")
	t.Setenv("RIVALSCAN_STORE_DRIVER", "postgres")
	t.Setenv("RIVALSCAN_DATAFORSEO_LOGIN", "user@example.com")
	t.Setenv("RIVALSCAN_ENGINE_CACHE_TTL_MINUTES", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "user@example.com", cfg.DataForSEO.Login)
	assert.Equal(t, 30, cfg.Engine.CacheTTLMinutes)
}

func TestLoadConfigFile(t *testing.T) {
	chdirTemp(t)

	wd, err := os.Getwd()
	require.NoError(t, err)
	yaml := []byte(`
server:
  port: 3000
engine:
  blocked_domains:
    - wikipedia.org
    - reddit.com
`)
	require.NoError(t, os.WriteFile(filepath.Join(wd, "config.yaml"), yaml, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, []string{"wikipedia.org", "reddit.com"}, cfg.Engine.BlockedDomains)
	// Untouched keys keep their defaults.
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
