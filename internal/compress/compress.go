// Package compress selects a streaming codec from a file name so manifests
// and dataset archives can be stored raw, zstd- or lz4-compressed.
package compress

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a stream compression format.
type Codec uint8

const (
	// CodecNone stores data as-is.
	CodecNone Codec = iota
	// CodecZSTD uses zstd frames (better ratio, good for archives).
	CodecZSTD
	// CodecLZ4 uses lz4 frames (fast, good for manifests read every run).
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecZSTD:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// ParseCodec maps a configuration value to a Codec. Empty means none.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "raw":
		return CodecNone, nil
	case "zstd", "zst":
		return CodecZSTD, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return CodecNone, fmt.Errorf("unknown codec %q", s)
	}
}

// Extension returns the file extension used for c, including the dot.
func (c Codec) Extension() string {
	switch c {
	case CodecZSTD:
		return ".zst"
	case CodecLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// FromPath detects the codec from the file extension.
func FromPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CodecZSTD
	case ".lz4":
		return CodecLZ4
	default:
		return CodecNone
	}
}

// NewReader wraps r with a decompressor for c. Closing the result closes r.
func NewReader(c Codec, r io.ReadCloser) (io.ReadCloser, error) {
	switch c {
	case CodecZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return &readCloser{Reader: dec, close: func() error {
			dec.Close()
			return r.Close()
		}}, nil
	case CodecLZ4:
		return &readCloser{Reader: lz4.NewReader(r), close: r.Close}, nil
	default:
		return r, nil
	}
}

// NewWriter wraps w with a compressor for c. Closing the result flushes the
// compressor and closes w.
func NewWriter(c Codec, w io.WriteCloser) (io.WriteCloser, error) {
	switch c {
	case CodecZSTD:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return &writeCloser{Writer: enc, flush: enc.Close, close: w.Close}, nil
	case CodecLZ4:
		zw := lz4.NewWriter(w)
		return &writeCloser{Writer: zw, flush: zw.Close, close: w.Close}, nil
	default:
		return w, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }

type writeCloser struct {
	io.Writer
	flush func() error
	close func() error
}

func (w *writeCloser) Close() error {
	if err := w.flush(); err != nil {
		_ = w.close()
		return err
	}
	return w.close()
}
