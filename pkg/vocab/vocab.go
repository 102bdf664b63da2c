// Package vocab builds the symbol vocabulary from a manifest and persists it
// so every split of a dataset is labelled with the same ids.
package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/heartmarshall/symbolset/pkg/manifest"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// DefaultSymbolField is the 0-based field holding the symbol rendering in a
// symbol manifest (symbol_id,latex,training_samples,test_samples).
const DefaultSymbolField = 1

// Options controls vocabulary construction.
type Options struct {
	// SkipHeader discards the first line of the manifest.
	SkipHeader bool
	// SymbolField is the 0-based field taken as the symbol.
	SymbolField int
	// Progress is optional.
	Progress manifest.ProgressFunc
}

// DefaultOptions matches the layout of a symbol manifest with a header line.
func DefaultOptions() Options {
	return Options{SkipHeader: true, SymbolField: DefaultSymbolField}
}

// Build reads the manifest at path and assigns sequential ids, starting at 0,
// to each distinct symbol in order of first appearance. Repeated symbols are
// skipped. The result depends only on the file contents.
func Build(path string, opts Options) (symbol.Vocabulary, error) {
	if opts.SymbolField < 0 || opts.SymbolField >= symbol.RecordFields {
		return symbol.Vocabulary{}, fmt.Errorf("vocab: symbol field %d outside [0, %d)", opts.SymbolField, symbol.RecordFields)
	}

	v := symbol.Vocabulary{
		IDToSymbol: make(map[int]string),
		SymbolToID: make(map[string]int),
	}

	next := 0
	err := manifest.Scan(path, manifest.ScanOptions{
		SkipHeader: opts.SkipHeader,
		Progress:   opts.Progress,
	}, func(_ int, rec symbol.Record) error {
		s := rec.Field(opts.SymbolField)
		if _, seen := v.SymbolToID[s]; seen {
			return nil
		}
		v.SymbolToID[s] = next
		v.IDToSymbol[next] = s
		next++
		return nil
	})
	if err != nil {
		return symbol.Vocabulary{}, fmt.Errorf("vocab: build: %w", err)
	}

	return v, nil
}

// file is the on-disk JSON layout: the position of a symbol is its id.
type file struct {
	Symbols []string `json:"symbols"`
}

// Save writes v as JSON to path, creating parent directories.
func Save(path string, v symbol.Vocabulary) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("vocab: save: %w", err)
	}

	data, err := json.MarshalIndent(file{Symbols: v.Symbols()}, "", "  ")
	if err != nil {
		return fmt.Errorf("vocab: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("vocab: create dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("vocab: write %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a vocabulary written by Save.
func LoadFile(path string) (symbol.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return symbol.Vocabulary{}, fmt.Errorf("vocab: %s: %w", path, symbol.ErrNotFound)
		}
		return symbol.Vocabulary{}, fmt.Errorf("vocab: read %s: %w", path, err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return symbol.Vocabulary{}, fmt.Errorf("vocab: decode %s: %w", path, err)
	}

	v, err := symbol.NewVocabulary(f.Symbols)
	if err != nil {
		return symbol.Vocabulary{}, fmt.Errorf("vocab: %s: %w", path, err)
	}
	return v, nil
}
