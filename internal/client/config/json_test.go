package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArgs(t *testing.T, args ...string) {
	t.Helper()
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = append([]string{"journal"}, args...)
}

func configFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJson(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "local mode with string durations",
			body: `{"mode":"local","local_dsn":"/tmp/j/keys.db","pending_ttl":"48h","request_timeout":"5s","log_level":"debug"}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ModeLocal, cfg.Mode)
				assert.Equal(t, "/tmp/j/keys.db", cfg.LocalDSN)
				assert.Equal(t, 48*time.Hour, cfg.PendingTTL)
				assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
		{
			name: "nanosecond durations",
			body: `{"server_endpoint_addr":"journal.example:443","request_timeout":2000000000}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "journal.example:443", cfg.ServerEndpointAddr)
				assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
				assert.Equal(t, 7*24*time.Hour, cfg.PendingTTL)
			},
		},
		{
			name: "absent fields keep defaults",
			body: `{"mode":"memory"}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ModeMemory, cfg.Mode)
				assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
				assert.Equal(t, "pairjournal.db", cfg.LocalDSN)
				assert.Equal(t, "warn", cfg.LogLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useArgs(t, "-config", configFile(t, tt.body))

			cfg := &Config{}
			cfg.LoadDefaults()
			parseJson(cfg)
			tt.check(t, cfg)
		})
	}
}

func TestParseJson_WithoutConfigFlag(t *testing.T) {
	useArgs(t, "status")

	cfg := &Config{Mode: ModeLocal, PendingTTL: time.Minute}
	parseJson(cfg)
	assert.Equal(t, &Config{Mode: ModeLocal, PendingTTL: time.Minute}, cfg)
}

func TestParseJson_BadFilePanics(t *testing.T) {
	useArgs(t, "-c", configFile(t, `{"mode":`))
	require.Panics(t, func() { parseJson(&Config{}) })

	useArgs(t, "-c", configFile(t, `{"pending_ttl":true}`))
	require.Panics(t, func() { parseJson(&Config{}) })
}
