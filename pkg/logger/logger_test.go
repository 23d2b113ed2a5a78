package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}, &buf
}

func TestLogger_ContextFields(t *testing.T) {
	l, buf := bufferLogger()

	l.WithRequestID("req-1").
		WithUserID("user-1").
		WithFields(map[string]interface{}{"hold_id": "h-1", "quantity": 2}).
		WithError(errors.New("boom")).
		Error("Failed to release inventory")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "user-1", record["user_id"])
	assert.Equal(t, "h-1", record["hold_id"])
	assert.EqualValues(t, 2, record["quantity"])
	assert.Equal(t, "boom", record["error"])
}

func TestSetDefault(t *testing.T) {
	previous := GetDefault()
	t.Cleanup(func() { SetDefault(previous) })

	l, _ := bufferLogger()
	SetDefault(l)
	assert.Same(t, l, GetDefault())
}
