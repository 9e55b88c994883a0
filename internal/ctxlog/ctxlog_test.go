package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello", "k", "v")

	assert.Contains(t, buf.String(), "msg=hello k=v")
}

func TestFallback(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
