// Package fileio opens plain, gzip- and lz4-compressed inputs.
package fileio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Reader is a decompressing reader over a file or stdin.
type Reader struct {
	io.Reader
	closers []io.Closer
}

// Close closes the decompressor and the underlying file.
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, or stdin when path is "-". Compression is
// detected from magic bytes, not from the file name.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = append([]io.Closer{f}, r.closers...)
	return r, nil
}

// NewReader wraps src in a decompressor when its first bytes carry a gzip
// or lz4 frame signature. The caller keeps ownership of src.
func NewReader(src io.Reader) (*Reader, error) {
	br := bufio.NewReader(src)

	head, err := br.Peek(len(lz4Magic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read header: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &Reader{Reader: gz, closers: []io.Closer{gz}}, nil
	case bytes.HasPrefix(head, lz4Magic):
		return &Reader{Reader: lz4.NewReader(br)}, nil
	}
	return &Reader{Reader: br}, nil
}
