package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "updates").With("owner", "alice")

	logger.Warn("dropping client", "reason", "slow")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "updates", line["component"])
	assert.Equal(t, "alice", line["owner"])
	assert.Equal(t, "slow", line["reason"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "dropping client", line["msg"])
}
