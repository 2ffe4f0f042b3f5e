package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "/api/v1", cfg.APIPrefix)
	require.Equal(t, 3, cfg.Incidents.NumberRetries)
	require.Equal(t, 2*time.Minute, cfg.Incidents.StatsCacheTTL)
	require.Equal(t, 72*time.Hour, cfg.Reports.SignedURLTTL)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, 5, cfg.Database.ConnectRetries)
	require.Equal(t, 15*time.Second, cfg.Database.StatementTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("INCIDENT_NUMBER_RETRIES", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REPORTS_SIGNED_URL_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 5, cfg.Incidents.NumberRetries)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 72*time.Hour, cfg.Reports.SignedURLTTL)
}

// chdirTemp runs the test from an empty directory so no local .env is picked up.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}
