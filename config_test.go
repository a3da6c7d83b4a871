package sublinear

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:8787", cfg.Addr)
	assert.Equal(t, "http://localhost:8787", cfg.BaseURL)
	assert.Equal(t, "sublinear.db", cfg.DatabaseURL)
	assert.True(t, cfg.RequireAuth)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sublinear", cfg.ServiceName)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sublinear.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
database_url: postgres://localhost/sublinear
require_auth: false
api_key: from-file
seed:
  team_name: Platform
  team_key: plt
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "http://localhost:9000", cfg.BaseURL)
	assert.Equal(t, "postgres://localhost/sublinear", cfg.DatabaseURL)
	assert.False(t, cfg.RequireAuth)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "Platform", cfg.Seed.TeamName)
	assert.Equal(t, "plt", cfg.Seed.TeamKey)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sublinear.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: from-file\nrequire_auth: true\n"), 0o644))

	t.Setenv("SUBLINEAR_API_KEY", "from-env")
	t.Setenv("SUBLINEAR_REQUIRE_AUTH", "0")
	t.Setenv("SUBLINEAR_PORT", "8123")
	t.Setenv("SUBLINEAR_BASE_URL", "https://linear.local")
	t.Setenv("SUBLINEAR_SEED_VIEWER_EMAIL", "dev@example.com")
	t.Setenv("SUBLINEAR_SERVICE_NAME", "sublinear-ci")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.False(t, cfg.RequireAuth)
	assert.Equal(t, "127.0.0.1:8123", cfg.Addr)
	assert.Equal(t, "https://linear.local", cfg.BaseURL)
	assert.Equal(t, "dev@example.com", cfg.Seed.ViewerEmail)
	assert.Equal(t, "sublinear-ci", cfg.ServiceName)
	assert.Equal(t, "http://collector:4318", cfg.OTLPEndpoint)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("SUBLINEAR_PORT", "http")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "YES"} {
		assert.True(t, parseBool(v), v)
	}
	for _, v := range []string{"0", "false", "no", "True", "", "on"} {
		assert.False(t, parseBool(v), v)
	}
}
