package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
)

const sampleConfig = `
default_server: local
servers:
  local:
    driver: mysql
    host: localhost
    port: 3306
    env_file: .env
    description: dev box
  warehouse:
    driver: postgres
    host: db.internal
    database: analytics
logging:
  level: debug
  console: false
metrics:
  listen: ":9102"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "simplesql.yaml", sampleConfig)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.Path)
	require.Equal(t, []string{"local", "warehouse"}, cfg.ServerNames())

	srv, ok := cfg.GetServer("")
	require.True(t, ok)
	require.Equal(t, "local", srv.Name)
	require.Equal(t, 3306, srv.Port)
	require.Equal(t, filepath.Join(dir, ".env"), srv.EnvFile)

	wh, ok := cfg.GetServer("warehouse")
	require.True(t, ok)
	require.Equal(t, "analytics", wh.Database)
	require.Zero(t, wh.Port)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.False(t, cfg.Logging.Console)
	require.EqualValues(t, 10, cfg.Logging.MaxSizeMB)
	require.Equal(t, ":9102", cfg.Metrics.Listen)
}

func TestLoadFileRejectsInvalidProfiles(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"unknown driver":  "servers:\n  a:\n    driver: mssql\n    host: h\n",
		"missing host":    "servers:\n  a:\n    driver: mysql\n",
		"bad port":        "servers:\n  a:\n    driver: mysql\n    host: h\n    port: 70000\n",
		"missing default": "default_server: nope\nservers:\n  a:\n    driver: mysql\n    host: h\n",
		"not yaml":        "servers: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, dir, "c.yaml", content))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigUsesEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "explicit.yaml", sampleConfig)
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, path, cfg.Path)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Empty(t, cfg.Path)
	require.Empty(t, cfg.Servers)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateServerDriverAliases(t *testing.T) {
	for _, driver := range []string{"mysql", "MariaDB", "postgresql", "sqlite3", "godror"} {
		require.NoError(t, ValidateServer(Server{Name: "a", Driver: driver, Host: "h"}), driver)
	}

	err := ValidateServer(Server{Name: "a", Driver: "mssql", Host: "h"})
	var ce *simplesql.ConfigurationError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "driver", ce.Field)
}
