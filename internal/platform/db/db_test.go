package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maktaba-backend/internal/platform/db"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
version: "1.0.0"
mode: dev
server:
  addr: ":9090"
database:
  host: 127.0.0.1
  port: 3306
  user: maktaba
  password: maktaba
  dbname: maktaba
`)

	cfg, err := db.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "dev", cfg.Mode)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "127.0.0.1", cfg.DB.Host)
	assert.Equal(t, 3306, cfg.DB.Port)
	assert.Equal(t, "maktaba", cfg.DB.DBName)
}

func TestLoadConfigDefaultAddr(t *testing.T) {
	path := writeConfig(t, `
version: "1.0.0"
mode: release
database:
  host: db
  port: 3306
  user: app
  password: secret
  dbname: maktaba
`)

	cfg, err := db.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		_, err := db.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("broken_yaml", func(t *testing.T) {
		path := writeConfig(t, "version: [unclosed")
		_, err := db.LoadConfig(path)
		assert.Error(t, err)
	})
}
