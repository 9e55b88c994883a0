package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key32 = strings.Repeat("a", 32)

// clearEnv hides variables of the surrounding shell from Load.
func clearEnv(t *testing.T) {
	for _, name := range []string{FileEnv, "HOST", "PORT", "API_KEY", "SECRET", "LOG_LEVEL",
		"LOG_FORMAT", "MQTT_BROKER", "TRELLO_BASE_URL", "TRELLO_RETRIES"} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 20000, cfg.Port)
	assert.Equal(t, "0.0.0.0:20000", cfg.Addr())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout.Duration)
	assert.Empty(t, cfg.MQTTBroker)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "gate.toml", `
port = 8080
api_key = "from-file"
secret = "s"
mqtt_broker = "tcp://localhost:1883"
shutdown_timeout = "3s"
`)
	clearEnv(t)
	t.Setenv(FileEnv, path)
	t.Setenv("API_KEY", key32)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, key32, cfg.APIKey, "environment wins over the file")
	assert.Equal(t, "s", cfg.Secret)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "gate.yaml", "host: 127.0.0.1\nlog_format: json\ntrello_retries: 3\nshutdown_timeout: 1m\n")
	clearEnv(t)
	t.Setenv(FileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3, cfg.TrelloRetries)
	assert.Equal(t, time.Minute, cfg.ShutdownTimeout.Duration)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"missing file", filepath.Join(os.TempDir(), "does-not-exist.toml"), nil},
		{"unknown extension", "gate.ini", nil},
		{"bad port", "", map[string]string{"PORT": "http"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := tt.file
			if file == "gate.ini" {
				file = writeFile(t, file, "port=1")
			}
			clearEnv(t)
			t.Setenv(FileEnv, file)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short key", func(c *Config) { c.APIKey = key32[:31] }, "API_KEY must be at least 32 chars long"},
		{"multibyte key counted in characters", func(c *Config) { c.APIKey = strings.Repeat("é", 16) }, "API_KEY must be at least 32 chars long"},
		{"multibyte key long enough", func(c *Config) { c.APIKey = strings.Repeat("é", 32) }, ""},
		{"no secret", func(c *Config) { c.Secret = "" }, "SECRET"},
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIKey = key32
			cfg.Secret = "secret"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
