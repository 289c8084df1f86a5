package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_DIR", dir)
	t.Setenv("LOG_LEVEL", "debug")

	logger, closeLogs := NewLogger("shield")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.WithField("fingerprint", "abc").Info("verdict cached")
	closeLogs()

	data, err := os.ReadFile(filepath.Join(dir, "shield.log"))
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "verdict cached", entry["msg"])
	assert.Equal(t, "abc", entry["fingerprint"])
	assert.Contains(t, entry, "time")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, parseLevel(""))
	assert.Equal(t, logrus.InfoLevel, parseLevel("chatty"))
	assert.Equal(t, logrus.WarnLevel, parseLevel(" warn "))
}

func TestAsyncConsoleHook_DrainsOnClose(t *testing.T) {
	out := &syncBuffer{}
	hook := newAsyncConsoleHook(out, 16)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.AddHook(hook)

	logger.Info("one")
	logger.Warn("two")
	hook.Close()
	hook.Close()

	assert.Contains(t, out.String(), "msg=one")
	assert.Contains(t, out.String(), "msg=two")
}

func TestAsyncFileWriter_NeverBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.log")
	w, err := NewAsyncFileWriter(path, 64)
	require.NoError(t, err)

	for i := 0; i < fileQueueSize*3; i++ {
		n, err := w.Write([]byte("line\n"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}
	w.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	written := uint64(strings.Count(string(data), "line\n"))
	assert.Equal(t, uint64(fileQueueSize*3), written+w.Dropped())
}
