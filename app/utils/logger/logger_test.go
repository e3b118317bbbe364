package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"debug level", "debug", false},
		{"info level", "info", false},
		{"warn level", "warn", false},
		{"warning alias", "warning", false},
		{"error level", "error", false},
		{"uppercase level", "INFO", false},
		{"unknown level", "chatty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	logger.Info("token rotated", "tenant_id", "default")

	out := buf.String()
	assert.Contains(t, out, "token rotated")
	assert.Contains(t, out, "token-service")
	assert.Contains(t, out, "default")
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("warn", &buf)
	require.NoError(t, err)

	logger.Info("should be filtered")
	logger.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	WithComponent(base, "sweeper").Info("sweep done")

	assert.Contains(t, buf.String(), "sweeper")
}

func TestWithTenantAndUser(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	logger := WithUser(WithTenant(base, "acme"), "user-1")
	logger.Info("login")

	out := buf.String()
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "user-1")
}

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)

	_, err = parseLogLevel("silly")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "silly"))
}
