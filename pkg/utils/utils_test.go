package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	counter, err := NewTokenCounter("gpt-4")
	require.NoError(t, err)

	assert.Equal(t, 0, counter.CountTokens(""))
	assert.InDelta(t, 2, counter.CountTokens("Hello world"), 1)
	assert.InDelta(t, 100, counter.CountTokens(strings.Repeat("word ", 100)), 10)
}

func TestNilCounterEstimates(t *testing.T) {
	var counter *TokenCounter
	assert.Equal(t, 2, counter.CountTokens("12345678"))
}

func TestTrimLeadingSegments(t *testing.T) {
	counter, err := NewTokenCounter("gpt-4")
	require.NoError(t, err)

	text := strings.Join([]string{
		strings.Repeat("alpha ", 30),
		strings.Repeat("beta ", 30),
		"gamma",
	}, " → ")

	trimmed := counter.TrimLeadingSegments(text, " → ", 40)
	assert.True(t, strings.HasSuffix(trimmed, "gamma"))
	assert.NotContains(t, trimmed, "alpha")
	assert.LessOrEqual(t, counter.CountTokens(trimmed), 40)

	assert.Equal(t, "short", counter.TrimLeadingSegments("short", " → ", 40))
	assert.Equal(t, "gamma", counter.TrimLeadingSegments(text, " → ", 1), "last segment is always kept")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"a":1}`), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"a":2}`), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
