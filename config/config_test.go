package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WAYPOINT_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Navigation.Timeout)
	assert.Equal(t, "home", cfg.Navigation.HomeRoute)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.Cache.MaxSize)
	assert.Equal(t, 30*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, 3, cfg.Session.MaxPerUser)
	assert.Equal(t, time.Second, cfg.Session.RateLimitWindow)
	assert.Equal(t, 10, cfg.Session.RateLimitMax)
	assert.ElementsMatch(t, []string{"user", "admin"}, cfg.Session.RoutePermissions["settings"])
	assert.Empty(t, cfg.Session.RoutePermissions["friends"])
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[navigation]
timeout = "2s"
home_route = "start"

[cache]
max_size = 4

[session.route_permissions]
vault = ["admin"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("WAYPOINT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Navigation.Timeout)
	assert.Equal(t, "start", cfg.Navigation.HomeRoute)
	assert.Equal(t, 4, cfg.Cache.MaxSize)
	// untouched sections keep their defaults
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"admin"}, cfg.Session.RoutePermissions["vault"])
}
