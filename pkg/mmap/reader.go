// Package mmap provides read-only memory-mapped access to source files so
// rows can be split without copying the file through a buffered reader.
package mmap

import (
	"bytes"
	"fmt"
	"os"
	"sync"
)

// Reader maps a whole file read-only
type Reader struct {
	file   *os.File
	data   []byte
	mapped bool
	mu     sync.Mutex
}

// NewReader opens and maps filename. Empty files are not mapped; their
// data is simply empty.
func NewReader(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: path comes from the catalog
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%s is a directory", filename)
	}

	r := &Reader{file: file}
	if stat.Size() == 0 {
		return r, nil
	}

	data, mapped, err := mapFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	r.data = data
	r.mapped = mapped

	return r, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (r *Reader) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Size returns the file size in bytes
func (r *Reader) Size() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.data))
}

// Close unmaps the file and closes it
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error

	if r.data != nil && r.mapped {
		err = unmapFile(r.data)
	}
	r.data = nil

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}

	return err
}

// LineReader walks '\n' terminated lines of mapped data
type LineReader struct {
	reader *Reader
	data   []byte
	offset int
}

// NewLineReader maps filename and returns a line reader over it
func NewLineReader(filename string) (*LineReader, error) {
	reader, err := NewReader(filename)
	if err != nil {
		return nil, err
	}
	return &LineReader{reader: reader, data: reader.Bytes()}, nil
}

// NewLineReaderBytes reads lines from an in-memory buffer
func NewLineReaderBytes(data []byte) *LineReader {
	return &LineReader{data: data}
}

// Next returns the next line without its '\n'. The slice aliases the
// mapping and must be copied if kept past Close. ok is false at EOF.
func (lr *LineReader) Next() (line []byte, ok bool) {
	if lr.offset >= len(lr.data) {
		return nil, false
	}

	rest := lr.data[lr.offset:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		lr.offset += i + 1
		return rest[:i], true
	}
	lr.offset = len(lr.data)
	return rest, true
}

// Offset returns how many bytes have been consumed
func (lr *LineReader) Offset() int64 {
	return int64(lr.offset)
}

// Size returns the total number of bytes
func (lr *LineReader) Size() int64 {
	return int64(len(lr.data))
}

// Close releases the mapping, if any
func (lr *LineReader) Close() error {
	lr.data = nil
	if lr.reader != nil {
		return lr.reader.Close()
	}
	return nil
}
