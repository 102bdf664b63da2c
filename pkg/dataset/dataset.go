// Package dataset loads labelled grayscale samples described by a label
// manifest (image_path,symbol_id,latex,extra).
package dataset

import (
	"context"
	"fmt"

	"github.com/heartmarshall/symbolset/pkg/imageio"
	"github.com/heartmarshall/symbolset/pkg/manifest"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// Options controls dataset loading.
type Options struct {
	// SkipHeader discards the first line of the manifest.
	SkipHeader bool
	// Source resolves image paths. Nil reads paths as written from the local filesystem.
	Source imageio.Source
	// Progress is optional.
	Progress manifest.ProgressFunc
}

// DefaultOptions matches a label manifest with a header line, read locally.
func DefaultOptions() Options {
	return Options{SkipHeader: true, Source: imageio.FileSource{}}
}

// Load reads every record of the manifest at path, decodes the referenced
// image to grayscale and labels it with symbolToID[latex]. Images[i] and
// Labels[i] come from the i-th record. The manifest's symbol_id field is not
// consulted.
//
// The first failure aborts the load and no partial dataset is returned.
func Load(ctx context.Context, path string, symbolToID map[string]int, opts Options) (symbol.Dataset, error) {
	src := opts.Source
	if src == nil {
		src = imageio.FileSource{}
	}

	ds := symbol.Dataset{
		Images: []symbol.Image{},
		Labels: []int{},
	}

	err := manifest.Scan(path, manifest.ScanOptions{
		SkipHeader: opts.SkipHeader,
		Progress:   opts.Progress,
	}, func(_ int, rec symbol.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		img, err := imageio.Load(ctx, src, rec.ImagePath())
		if err != nil {
			return err
		}

		label, ok := symbolToID[rec.Latex()]
		if !ok {
			return &symbol.UnknownSymbolError{Symbol: rec.Latex()}
		}

		ds.Images = append(ds.Images, img)
		ds.Labels = append(ds.Labels, label)
		return nil
	})
	if err != nil {
		return symbol.Dataset{}, fmt.Errorf("dataset: load: %w", err)
	}

	return ds, nil
}

// LoadWithVocabulary is Load using v.SymbolToID.
func LoadWithVocabulary(ctx context.Context, path string, v symbol.Vocabulary, opts Options) (symbol.Dataset, error) {
	return Load(ctx, path, v.SymbolToID, opts)
}

// Check validates a label manifest against symbolToID without decoding any
// image: every record must be well formed and reference a known symbol.
// It returns the number of records.
func Check(path string, symbolToID map[string]int, skipHeader bool) (int, error) {
	n := 0
	err := manifest.Scan(path, manifest.ScanOptions{SkipHeader: skipHeader}, func(_ int, rec symbol.Record) error {
		if _, ok := symbolToID[rec.Latex()]; !ok {
			return &symbol.UnknownSymbolError{Symbol: rec.Latex()}
		}
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("dataset: check: %w", err)
	}
	return n, nil
}
