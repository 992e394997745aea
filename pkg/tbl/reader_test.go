package tbl

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{line: "1|2|3|", want: []string{"1", "2", "3"}},
		{line: "1|2|3", want: []string{"1", "2", "3"}},
		{line: "1|2|3|\r", want: []string{"1", "2", "3"}},
		{line: "1||3|", want: []string{"1", "", "3"}},
		{line: "1|2||", want: []string{"1", "2", ""}},
		{line: `\N|x|`, want: []string{`\N`, "x"}},
		{line: "", want: nil},
		{line: "\r", want: nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitLine(tt.line), "line %q", tt.line)
	}
}

func TestReader_SkipsBlankLines(t *testing.T) {
	r := NewReader([]byte("1|a|\n\n2|b|\r\n\r\n3|c"), 2)
	defer r.Close()

	var got [][]string
	for row, err := range r.Rows() {
		require.NoError(t, err)
		got = append(got, append([]string(nil), row...))
	}
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}, {"3", "c"}}, got)

	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_FieldCountMismatch(t *testing.T) {
	r := NewReader([]byte("1|2|3|\n1|2|\n"), 3)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, RawRow{"1", "2", "3"}, row)

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFieldCountMismatch))

	expected, _ := errors.DetailOf(err, "expected")
	actual, _ := errors.DetailOf(err, "actual")
	assert.Equal(t, 3, expected)
	assert.Equal(t, 2, actual)
	assert.Equal(t, int64(2), r.Line())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "region.tbl")
	require.NoError(t, os.WriteFile(path, []byte("0|AFRICA|lar deposits|\n1|AMERICA|hs use ironic|\n"), 0o600))

	r, err := Open(path, 3)
	require.NoError(t, err)
	defer r.Close()

	n := 0
	for _, err := range r.Rows() {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 2, n)
	consumed, total := r.Progress()
	assert.Equal(t, total, consumed)

	_, err = Open(filepath.Join(dir, "missing.tbl"), 3)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnreadableSource))
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tbl")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	r, err := Open(path, 4)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}
