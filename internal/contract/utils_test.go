package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "smallest value possible", input: 0.0, expected: PoorValue},
		{name: "just before weak", input: 0.249, expected: PoorValue},
		{name: "exactly weak", input: 0.25, expected: WeakValue},
		{name: "just before fair", input: 0.499, expected: WeakValue},
		{name: "exactly fair", input: 0.5, expected: FairValue},
		{name: "just before strong", input: 0.749, expected: FairValue},
		{name: "exactly strong", input: 0.75, expected: StrongValue},
		{name: "perfect", input: 1.0, expected: StrongValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		label string
	}{
		{"poor", 0.1, PoorValue},
		{"weak", 0.3, WeakValue},
		{"fair", 0.6, FairValue},
		{"strong", 0.9, StrongValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, GetColorLabel(tt.score), tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestTruncateURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		width    int
		expected string
	}{
		{"fits", "https://github.com/a/b", 40, "https://github.com/a/b"},
		{"exact", "abcdef", 6, "abcdef"},
		{"keeps tail", "https://github.com/expressjs/express", 12, "...s/express"},
		{"width too small", "https://github.com/a/b", 3, "https://github.com/a/b"},
		{"multibyte", "https://github.com/ü/ñandú", 8, "...ñandú"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateURL(tt.url, tt.width)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

func TestGetDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	cache := GetCacheDBFilePath()
	history := GetHistoryDBFilePath()

	assert.Contains(t, cache, ".trustscore_cache.db")
	assert.Contains(t, history, ".trustscore_history.db")
	assert.True(t, strings.HasPrefix(cache, homeDir), "path %s should start with home dir %s", cache, homeDir)
	assert.NotEqual(t, cache, history)
}
