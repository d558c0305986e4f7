package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelWarn, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelWarn, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, slog.LevelInfo, FormatJSON)
	t.Cleanup(func() { Init(nil, slog.LevelWarn, FormatText) })

	Debug("hidden")
	ctx := WithConversionID(context.Background(), "abc")
	FromContext(ctx).Info("converted", "page", "Home")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "converted", entry["msg"])
	assert.Equal(t, "abc", entry["conversion_id"])
	assert.Equal(t, "Home", entry["page"])
	assert.NotEmpty(t, entry["time"])
}

func TestConversionID_Missing(t *testing.T) {
	assert.Equal(t, "", ConversionID(context.Background()))
}
