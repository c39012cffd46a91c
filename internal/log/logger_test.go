package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryLevelCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}).WithComponent(ComponentLedger)
	ctx := context.Background()

	logger.Debug("d")
	logger.DebugContext(ctx, "dc")
	logger.Info("i")
	logger.InfoContext(ctx, "ic")
	logger.Warn("w")
	logger.WarnContext(ctx, "wc")
	logger.Error("e")
	logger.ErrorContext(ctx, "ec")
	logger.Log(ctx, slog.LevelInfo, "l")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 9)
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		assert.Equal(t, ComponentLedger, rec[FieldComponent], rec["msg"])
	}
}

func TestDebugFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: ParseLevel("info"), Output: &buf})

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("shown", FieldUserID, 7)
	assert.Contains(t, buf.String(), "component=app")
	assert.Contains(t, buf.String(), "user_id=7")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
