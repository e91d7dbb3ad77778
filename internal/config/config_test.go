package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "crustalyst.changes", cfg.RabbitMQ.Exchange)
	assert.Equal(t, 2*time.Second, cfg.RabbitMQ.ReconnectDelay)
	assert.Equal(t, 5*time.Minute, cfg.Tables.CleaningDelay)
	assert.Equal(t, 50, cfg.Orders.HistoryLimit)
	assert.Equal(t, DefaultKioskAPIURL, cfg.Kiosk.APIURL)
	assert.Equal(t, DefaultAnonKey, cfg.Kiosk.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Kiosk.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Kiosk.FallbackPollInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CRUSTALYST_APP_PORT", "9090")
	t.Setenv("CRUSTALYST_KIOSK_API_URL", "http://kiosk.local")
	t.Setenv("CRUSTALYST_TABLES_CLEANING_DELAY", "90s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "http://kiosk.local", cfg.Kiosk.APIURL)
	assert.Equal(t, 90*time.Second, cfg.Tables.CleaningDelay)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  host: db.internal
  port: 6543
redis:
  menu_ttl: 30s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 30*time.Second, cfg.Redis.MenuTTL)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal port=6543")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.App.Port = 0
	cfg.Auth.StaffPassword = ""
	cfg.Auth.StaffPasswordHash = ""
	cfg.App.Env = "production"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.port")
	assert.Contains(t, err.Error(), "staff_password")
	assert.Contains(t, err.Error(), "production")
}
