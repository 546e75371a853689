package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the container format of a FASTA stream.
type Compression string

const (
	None Compression = "none"
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
	LZ4  Compression = "lz4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Sniff reports the compression format from the first bytes of a stream.
func Sniff(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	default:
		return None
	}
}

// readCloser closes the decoder and then the underlying source.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *readCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Decompress wraps rc with a decoder chosen by magic bytes. Closing the result
// closes rc as well.
func Decompress(rc io.ReadCloser) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(rc)
	head, _ := br.Peek(4)
	kind := Sniff(head)
	switch kind {
	case Gzip:
		gr, err := gzip.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, kind, fmt.Errorf("fasta: gzip: %w", err)
		}
		return &readCloser{Reader: gr, closers: []io.Closer{gr, rc}}, kind, nil
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, kind, fmt.Errorf("fasta: zstd: %w", err)
		}
		zr := dec.IOReadCloser()
		return &readCloser{Reader: zr, closers: []io.Closer{zr, rc}}, kind, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(br), closers: []io.Closer{rc}}, kind, nil
	default:
		return &readCloser{Reader: br, closers: []io.Closer{rc}}, None, nil
	}
}

// Open opens path ("-" for stdin) and returns a decompressed reader.
func Open(path string) (io.ReadCloser, Compression, error) {
	var rc io.ReadCloser
	if path == "-" {
		rc = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, None, err
		}
		rc = f
	}
	return Decompress(rc)
}
