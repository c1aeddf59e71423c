package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.yaml")
	writeFile(t, path, `
server:
  port: "9000"
database:
  name: vms
  host: db.internal
pagination:
  max_page_size: 100
rate_limit:
  global_ip:
    rate: 50
    window: 1m
  login:
    rate: 5
    window: 15m
cors:
  origins: ["https://ops.example.com"]
`)
	t.Setenv("JWT_SIGNING_KEY", testKey)
	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port, "empty env must not clear file values")
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port, "defaults survive")
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, 50, cfg.RateLimit.GlobalIP.Rate)
	assert.Equal(t, time.Minute, cfg.RateLimit.GlobalIP.Window)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, []string{"https://ops.example.com"}, cfg.CORS.Origins)
	assert.False(t, cfg.Events.Enabled())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", testKey)
	t.Setenv("DB_NAME", "vms")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0, cfg.Pagination.MaxPageSize)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
}

func TestLoad_ShippedDefaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", testKey)
	t.Setenv("DB_NAME", "vms")
	t.Setenv("MAX_PAGE_SIZE", "")

	cfg, err := Load(filepath.Join("..", "..", "config", "default.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Pagination.MaxPageSize, "page size is unbounded unless configured")
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	writeFile(t, path, "pagination: [unclosed")
	t.Setenv("JWT_SIGNING_KEY", testKey)

	_, err := Load(path)
	assert.Error(t, err)

	writeFile(t, path, "database:\n  name: vms\n")
	t.Setenv("JWT_SIGNING_KEY", "short")
	_, err = Load(path)
	assert.ErrorContains(t, err, "signing_key")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p@ss", Name: "vms", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@h:5432/vms?sslmode=disable", d.DSN())
}

func TestSpoolDir(t *testing.T) {
	cfg := Default()
	cfg.Server.DataRoot = t.TempDir()

	dir, err := cfg.SpoolDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Server.DataRoot, "audit_spool"), dir)

	cfg.Audit.SpoolDir = "../escape"
	_, err = cfg.SpoolDir()
	assert.Error(t, err)

	cfg.Audit.SpoolDir = "spool"
	require.NoError(t, cfg.EnsureDirs())
	_, err = os.Stat(filepath.Join(cfg.Server.DataRoot, "spool"))
	assert.NoError(t, err)
}

func TestSafeJoin(t *testing.T) {
	base := t.TempDir()
	cases := []struct {
		name     string
		elements []string
		valid    bool
	}{
		{"normal", []string{"logs", "app.log"}, true},
		{"parent", []string{"..", "other"}, false},
		{"nested_parent", []string{"logs", "..", "..", "secrets"}, false},
		{"absolute", []string{"/etc/passwd"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SafeJoin(base, tc.elements...)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.yaml")
	writeFile(t, path, "database:\n  name: vms\nrate_limit:\n  user:\n    rate: 10\n    window: 1m\n")
	t.Setenv("JWT_SIGNING_KEY", testKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	Watch(ctx, path, nil, func(c *Config) { reloaded <- c })

	writeFile(t, path, "database:\n  name: vms\nrate_limit:\n  user:\n    rate: 99\n    window: 1m\n")

	select {
	case c := <-reloaded:
		assert.Equal(t, 99, c.RateLimit.User.Rate)
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
