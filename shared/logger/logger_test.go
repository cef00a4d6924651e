package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.InfoLevel, parseLevel("").Level())
	assert.Equal(t, zap.DebugLevel, parseLevel("DEBUG").Level())
	assert.Equal(t, zap.WarnLevel, parseLevel(" warn ").Level())
	assert.Equal(t, zap.InfoLevel, parseLevel("loud").Level())
}

func TestEncoding(t *testing.T) {
	assert.Equal(t, "console", encoding("Console"))
	assert.Equal(t, "json", encoding("json"))
	assert.Equal(t, "json", encoding("xml"))
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quest.log")
	log, err := New(Config{Level: "debug", Encoding: "console", OutputPath: path})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
	log.Info("hello")
	_ = log.Sync()
	assert.FileExists(t, path)
}
