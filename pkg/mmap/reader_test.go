package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.tbl")
	require.NoError(t, os.WriteFile(path, []byte("a|b|\n\nc|d|\r\nlast"), 0o600))

	lr, err := NewLineReader(path)
	require.NoError(t, err)
	defer lr.Close()

	var lines []string
	for {
		line, ok := lr.Next()
		if !ok {
			break
		}
		lines = append(lines, string(line))
	}
	assert.Equal(t, []string{"a|b|", "", "c|d|\r", "last"}, lines)
	assert.Equal(t, lr.Size(), lr.Offset())
}

func TestReader_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tbl")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	r, err := NewReader(path)
	require.NoError(t, err)
	assert.Empty(t, r.Bytes())
	assert.Equal(t, int64(0), r.Size())
	require.NoError(t, r.Close())
}

func TestReader_Missing(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.tbl"))
	assert.Error(t, err)

	_, err = NewReader(t.TempDir())
	assert.Error(t, err)
}
