package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.True(t, cfg.Server.CORS)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, StorageModeAuto, cfg.Storage.Mode)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a11y.yaml")
	content := `
server:
  port: 9090
database:
  driver: sqlite
  dsn: ./a11y.db
logger:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("A11Y_LOGGER_LEVEL", "debug")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./a11y.db", cfg.Database.DSN)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8081},
			Database: DatabaseConfig{Driver: "postgres", DSN: "postgres://x"},
			Storage:  StorageConfig{Mode: StorageModeAuto},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "bad mode", mutate: func(c *Config) { c.Storage.Mode = "disk" }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{
			name: "memory mode ignores database",
			mutate: func(c *Config) {
				c.Storage.Mode = StorageModeMemory
				c.Database = DatabaseConfig{}
			},
		},
		{
			name: "rate limit without burst",
			mutate: func(c *Config) {
				c.Server.RateLimit = RateLimitConfig{RequestsPerSecond: 5}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
