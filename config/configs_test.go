package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigXML(t *testing.T) {
	path := writeFile(t, "config.xml", `<config>
  <MainRouter>0.0.0.0:9000</MainRouter>
  <driver>postgres</driver>
  <host>db</host>
  <port>5432</port>
  <user>gis</user>
  <password>secret</password>
  <dbname>geo</dbname>
</config>`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.MainRouter)
	assert.Equal(t, "postgres", Driver)
	assert.Equal(t, "host=db user=gis password=secret dbname=geo port=5432 sslmode=disable TimeZone=UTC", DSN)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "main_router: \":8426\"\ndriver: postgres\nhost: localhost\nport: \"5433\"\nuser: root\npassword: pw\ndbname: geo\nlog_level: debug\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "host=localhost user=root password=pw dbname=geo port=5433 sslmode=disable TimeZone=UTC", cfg.DSN())
}

func TestLoadConfigDefaultsToSQLite(t *testing.T) {
	path := writeFile(t, "config.yml", "sqlite: /tmp/geo.db\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "/tmp/geo.db", cfg.DSN())
	assert.Equal(t, "127.0.0.1:8426", cfg.MainRouter)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "config.ini", "a=b"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "config.xml", "<config><driver>"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "config.yaml", "driver: mysql\n"))
	assert.ErrorContains(t, err, "mysql")
}
