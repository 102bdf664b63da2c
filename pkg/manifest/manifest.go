// Package manifest reads comma-separated manifest files: one optional header
// line followed by four-field records. Pure functions: file path in, records
// out. Manifests ending in .zst or .lz4 are decompressed transparently.
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/heartmarshall/symbolset/internal/compress"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

const (
	initialLineBuf = 64 * 1024
	maxLineLen     = 1024 * 1024
)

// ProgressFunc receives the number of records processed so far and the
// expected total. It is called once per record.
type ProgressFunc func(done, total int)

// ScanOptions controls how Scan walks a manifest.
type ScanOptions struct {
	// SkipHeader discards the first line unconditionally.
	SkipHeader bool
	// Progress, when set, costs one extra pass over the file to size the total.
	Progress ProgressFunc
}

// Open opens a manifest for reading, decompressing by file extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	rc, err := compress.NewReader(compress.FromPath(path), f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", symbol.ErrManifestRead, path, err)
	}
	return rc, nil
}

// CountLines returns the number of lines in the file. A final line without a
// trailing newline still counts.
func CountLines(path string) (int, error) {
	rc, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	buf := make([]byte, 32*1024)
	count := 0
	last := byte('\n')
	for {
		n, err := rc.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", symbol.ErrManifestRead, path, err)
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}

// ParseRecord splits a manifest line into exactly four fields. Quoting is not
// supported: a field containing a comma produces a malformed record.
func ParseRecord(line string) (symbol.Record, error) {
	line = strings.TrimSuffix(line, "\r")
	fields := strings.Split(line, ",")
	if len(fields) != symbol.RecordFields {
		return symbol.Record{}, fmt.Errorf("%w: expected %d fields, got %d",
			symbol.ErrMalformedRecord, symbol.RecordFields, len(fields))
	}

	var rec symbol.Record
	copy(rec.Fields[:], fields)
	return rec, nil
}

// Scan calls fn for every record in file order. line is the 1-based physical
// line number. Any parse error or error returned by fn stops the scan and is
// returned as a *symbol.RecordError.
func Scan(path string, opts ScanOptions, fn func(line int, rec symbol.Record) error) error {
	total := 0
	if opts.Progress != nil {
		n, err := CountLines(path)
		if err != nil {
			return err
		}
		total = n
		if opts.SkipHeader && total > 0 {
			total--
		}
	}

	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, initialLineBuf), maxLineLen)

	lineNo := 0
	if opts.SkipHeader {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("%w: %s: %w", symbol.ErrManifestRead, path, err)
			}
			return fmt.Errorf("%w: %s is empty", symbol.ErrMissingHeader, path)
		}
		lineNo++
	}

	done := 0
	for scanner.Scan() {
		lineNo++

		rec, err := ParseRecord(scanner.Text())
		if err != nil {
			return &symbol.RecordError{Path: path, Line: lineNo, Err: err}
		}
		if err := fn(lineNo, rec); err != nil {
			return &symbol.RecordError{Path: path, Line: lineNo, Err: err}
		}

		done++
		if opts.Progress != nil {
			opts.Progress(done, total)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", symbol.ErrManifestRead, path, err)
	}
	return nil
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", symbol.ErrManifestNotFound, path, err)
	}
	return fmt.Errorf("%w: %s: %w", symbol.ErrManifestRead, path, err)
}
