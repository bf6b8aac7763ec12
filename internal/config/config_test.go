package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8088
  corsOrigins:
    - https://addin.example.com
backend:
  mode: remote
  baseURL: http://localhost:8000/api
  timeoutSeconds: 90
database:
  driver: postgres
  host: db
  port: 5432
  user: clauselens
  password: secret
  name: clauselens
session:
  documentIDScheme: content
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, []string{"https://addin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "remote", cfg.Backend.Mode)
	assert.Equal(t, 90, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "content", cfg.Session.DocumentIDScheme)
	assert.Equal(t,
		"host=db port=5432 user=clauselens password=secret dbname=clauselens sslmode=disable",
		cfg.PostgresDSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	var cfg Config
	cfg.Database.User = "root"
	cfg.Database.Password = "pw"
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 3306
	cfg.Database.Name = "clauselens"

	assert.Equal(t,
		"root:pw@tcp(127.0.0.1:3306)/clauselens?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
}
