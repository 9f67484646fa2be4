package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/glpi-bridge/pkg/util"
)

func setValidUpstreamEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GLPI_URL", "https://helpdesk.example.com/apirest.php/")
	t.Setenv("GLPI_APP_TOKEN", "app-token")
	t.Setenv("GLPI_USER_TOKEN", "user-token")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setValidUpstreamEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, time.Hour, cfg.GLPI.SessionTTL())
	assert.Equal(t, 5*time.Minute, cfg.GLPI.CategoryTTL())
	assert.Equal(t, 15*time.Second, cfg.GLPI.UpstreamTimeout())
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Auth.Enabled())
	// Trailing slashes are stripped so endpoint paths concatenate cleanly.
	assert.Equal(t, "https://helpdesk.example.com/apirest.php", cfg.GLPI.BaseURL)
}

func TestLoadRequiresUpstreamURL(t *testing.T) {
	t.Setenv("GLPI_URL", "")
	t.Setenv("GLPI_APP_TOKEN", "app-token")
	t.Setenv("GLPI_USER_TOKEN", "user-token")

	_, err := Load()

	require.Error(t, err)
	assert.True(t, util.HasCode(err, "CONFIGURATION_ERROR"))
}

func TestLoadRejectsNonHTTPURL(t *testing.T) {
	setValidUpstreamEnv(t)
	t.Setenv("GLPI_URL", "ftp://helpdesk.example.com")

	_, err := Load()

	require.Error(t, err)
	assert.True(t, util.HasCode(err, "CONFIGURATION_ERROR"))
}

func TestLoadRequiresTokens(t *testing.T) {
	setValidUpstreamEnv(t)
	t.Setenv("GLPI_APP_TOKEN", "")

	_, err := Load()

	require.Error(t, err)
	assert.True(t, util.HasCode(err, "CONFIGURATION_ERROR"))
}

func TestLoadReadsOverrides(t *testing.T) {
	setValidUpstreamEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("GLPI_SESSION_TTL_SECONDS", "60")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("AUTH_JWT_SECRET", "local-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, time.Minute, cfg.GLPI.SessionTTL())
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL())
}
