package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"a11y_tracker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  config.LoggerConfig
		wantErr bool
	}{
		{
			name:   "valid json config",
			config: config.LoggerConfig{Level: "debug", Format: "json"},
		},
		{
			name:   "valid console config",
			config: config.LoggerConfig{Level: "info", Format: "console"},
		},
		{
			name:    "invalid level",
			config:  config.LoggerConfig{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:   "empty config uses defaults",
			config: config.LoggerConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, log)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, log)
			}
		})
	}
}

func TestWritesToOutputPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a11y.log")
	log, err := New(config.LoggerConfig{Level: "debug", Format: "json", OutputPaths: []string{out}})
	require.NoError(t, err)

	log.WithComponent("storage").WithScanID(7).Infow("scan created", "file_key", "abc")
	log.LogDuration("ingest", time.Now())
	require.NoError(t, log.Zap().Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"storage"`)
	assert.Contains(t, string(data), `"scan_id":7`)
	assert.Contains(t, string(data), `"operation":"ingest"`)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Infow("discarded", "key", "value")
	assert.NotNil(t, log.WithFields("a", 1))
}
