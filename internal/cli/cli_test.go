package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/balazsgrill/actiongate/internal/config"
	"github.com/balazsgrill/actiongate/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "0123456789abcdef0123456789abcdef"
	testSecret = "s3cret"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) {
	for _, name := range []string{config.FileEnv, "API_KEY", "SECRET", "HOST", "PORT", "LOG_LEVEL", "LOG_FORMAT", "MQTT_BROKER"} {
		t.Setenv(name, "")
	}
}

func TestTokenCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("API_KEY", testKey)
	t.Setenv("SECRET", testSecret)

	out, err := execute(t, "token")
	require.NoError(t, err)

	tok := strings.TrimSpace(out)
	assert.NoError(t, token.New(testSecret, testKey).Authorize(tok))
}

func TestTokenCommandFromFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "gateway.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_key = \""+testKey+"\"\nsecret = \"file-secret\"\n"), 0o600))

	out, err := execute(t, "token", "--config", path)
	require.NoError(t, err)
	assert.NoError(t, token.New("file-secret", testKey).Authorize(strings.TrimSpace(out)))
}

func TestTokenCommandRejectsShortKey(t *testing.T) {
	isolateEnv(t)
	t.Setenv("API_KEY", "short")
	t.Setenv("SECRET", testSecret)

	_, err := execute(t, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY must be at least 32 chars long")
}

func TestInvalidLogFormat(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, "token", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestNewGatewayWithoutBroker(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = testKey
	cfg.Secret = testSecret
	require.NoError(t, cfg.Validate())

	gw, err := NewGateway(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)
	assert.Nil(t, gw.Announcer)
	assert.NotNil(t, gw.Server.Handler())
}
