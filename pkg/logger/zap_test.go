package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewZapLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderflow.log")

	logger, err := NewZapLogger(Config{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		Fields:   map[string]string{"service": "orderflow", "environment": "test"},
	})
	require.NoError(t, err)

	logger.Debug("Order created", zap.String("order_id", "PND123456"))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "Order created", entry["message"])
	assert.Equal(t, "debug", entry["log.level"])
	assert.Equal(t, "PND123456", entry["order_id"])
	assert.Equal(t, "orderflow", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Contains(t, entry, "@timestamp")
}

func TestNewZapLogger_FileOutputRequiresPath(t *testing.T) {
	_, err := NewZapLogger(Config{Output: "file"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.InfoLevel, parseLevel("").Level())
	assert.Equal(t, zap.WarnLevel, parseLevel("WARN").Level())
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose").Level())
}
