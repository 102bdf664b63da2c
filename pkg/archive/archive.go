// Package archive stores a loaded dataset in a compact binary file so a
// training job can read samples without decoding images again.
//
// Layout (little-endian), optionally wrapped in a zstd or lz4 stream chosen by
// the file extension:
//
//	magic   [8]byte  "SYMDS\x00\x01\x00"
//	run id  [16]byte
//	count   uint32
//	count x { label uint32, width uint32, height uint32, pix [width*height]float32 }
package archive

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/heartmarshall/symbolset/internal/compress"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

var magic = [8]byte{'S', 'Y', 'M', 'D', 'S', 0, 1, 0}

// ErrFormat is returned for files that are not dataset archives.
var ErrFormat = errors.New("archive: invalid format")

const (
	// maxSide bounds image dimensions read from an archive.
	maxSide = 1 << 15
	// maxPrealloc bounds the sample slices allocated from the header count.
	maxPrealloc = 1 << 16
)

// Header describes an archive without its samples.
type Header struct {
	RunID uuid.UUID
	Count int
}

// Write stores ds at path, compressing according to the path extension.
func Write(path string, runID uuid.UUID, ds symbol.Dataset) (err error) {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	for i, label := range ds.Labels {
		if label < 0 || int64(label) > math.MaxUint32 {
			return fmt.Errorf("archive: label %d of sample %d out of range", label, i)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("archive: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", path, err)
	}
	wc, err := compress.NewWriter(compress.FromPath(path), f)
	if err != nil {
		f.Close()
		return fmt.Errorf("archive: %w", err)
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("archive: close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriterSize(wc, 256*1024)
	if err := writeAll(w, runID, ds); err != nil {
		return fmt.Errorf("archive: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("archive: flush %s: %w", path, err)
	}
	return nil
}

func writeAll(w io.Writer, runID uuid.UUID, ds symbol.Dataset) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write(runID[:]); err != nil {
		return err
	}

	var u32 [4]byte
	put := func(v uint32) error {
		binary.LittleEndian.PutUint32(u32[:], v)
		_, err := w.Write(u32[:])
		return err
	}

	if err := put(uint32(ds.Len())); err != nil {
		return err
	}
	for i, img := range ds.Images {
		if err := put(uint32(ds.Labels[i])); err != nil {
			return err
		}
		if err := put(uint32(img.Width)); err != nil {
			return err
		}
		if err := put(uint32(img.Height)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, img.Pix); err != nil {
			return err
		}
	}
	return nil
}

// Read loads an archive written by Write.
func Read(path string) (Header, symbol.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, symbol.Dataset{}, fmt.Errorf("archive: open %s: %w", path, err)
	}
	rc, err := compress.NewReader(compress.FromPath(path), f)
	if err != nil {
		f.Close()
		return Header{}, symbol.Dataset{}, fmt.Errorf("archive: %w", err)
	}
	defer rc.Close()

	r := bufio.NewReaderSize(rc, 256*1024)

	hdr, err := readHeader(r)
	if err != nil {
		return Header{}, symbol.Dataset{}, fmt.Errorf("archive: %s: %w", path, err)
	}

	// The count is untrusted; a short file fails on read instead.
	prealloc := min(hdr.Count, maxPrealloc)
	ds := symbol.Dataset{
		Images: make([]symbol.Image, 0, prealloc),
		Labels: make([]int, 0, prealloc),
	}
	for i := range hdr.Count {
		var meta [3]uint32
		if err := binary.Read(r, binary.LittleEndian, &meta); err != nil {
			return Header{}, symbol.Dataset{}, fmt.Errorf("archive: %s: sample %d: %w", path, i, truncated(err))
		}
		if meta[1] > maxSide || meta[2] > maxSide {
			return Header{}, symbol.Dataset{}, fmt.Errorf("%w: %s: sample %d is %dx%d", ErrFormat, path, i, meta[1], meta[2])
		}

		img := symbol.NewImage(int(meta[1]), int(meta[2]))
		if err := binary.Read(r, binary.LittleEndian, img.Pix); err != nil {
			return Header{}, symbol.Dataset{}, fmt.Errorf("archive: %s: sample %d pixels: %w", path, i, truncated(err))
		}
		ds.Images = append(ds.Images, img)
		ds.Labels = append(ds.Labels, int(meta[0]))
	}

	return hdr, ds, nil
}

// ReadHeader returns the run id and sample count of an archive.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("archive: open %s: %w", path, err)
	}
	rc, err := compress.NewReader(compress.FromPath(path), f)
	if err != nil {
		f.Close()
		return Header{}, fmt.Errorf("archive: %w", err)
	}
	defer rc.Close()

	hdr, err := readHeader(rc)
	if err != nil {
		return Header{}, fmt.Errorf("archive: %s: %w", path, err)
	}
	return hdr, nil
}

// truncated reports a short read as ErrFormat.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated", ErrFormat)
	}
	return err
}

func readHeader(r io.Reader) (Header, error) {
	var buf [len(magic) + 16 + 4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, ErrFormat
		}
		return Header{}, err
	}
	if !bytes.Equal(buf[:len(magic)], magic[:]) {
		return Header{}, ErrFormat
	}

	var hdr Header
	copy(hdr.RunID[:], buf[len(magic):len(magic)+16])
	hdr.Count = int(binary.LittleEndian.Uint32(buf[len(magic)+16:]))
	return hdr, nil
}
