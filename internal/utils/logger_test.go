package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRequestLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "DEBUG"},
		{404, "WARN"},
		{500, "ERROR"},
		{0, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := FromSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

		logger.With("component", "quizapi").LogRequest(context.Background(), "POST", "/quizs", tt.status, "12ms")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, tt.level, entry["level"], "status %d", tt.status)
		assert.Equal(t, "/quizs", entry["path"])
		assert.Equal(t, "quizapi", entry["component"])
	}
}
