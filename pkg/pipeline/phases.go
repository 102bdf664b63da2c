package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/symbolset/internal/compress"
	"github.com/heartmarshall/symbolset/pkg/archive"
	"github.com/heartmarshall/symbolset/pkg/ctxutil"
	"github.com/heartmarshall/symbolset/pkg/dataset"
	"github.com/heartmarshall/symbolset/pkg/manifest"
	"github.com/heartmarshall/symbolset/pkg/symbol"
	"github.com/heartmarshall/symbolset/pkg/vocab"
)

// Where the vocabulary of a run came from.
const (
	sourceFile     = "file"
	sourceManifest = "manifest"
	sourceCatalog  = "catalog"
)

// VocabularyFile is the name of the vocabulary written next to the archives.
const VocabularyFile = "vocabulary.json"

// errNoVocabulary is recorded by phases that need a vocabulary when none was
// produced.
var errNoVocabulary = errors.New("vocabulary not available")

// errLoadFailed blocks export after a failed load so no partial set of
// archives is written.
var errLoadFailed = errors.New("load phase failed, export skipped")

// runVocabulary resolves the vocabulary from, in order: a saved vocabulary
// file, the symbol manifest, the catalog.
func (p *Pipeline) runVocabulary(ctx context.Context) PhaseResult {
	m := p.cfg.Manifest

	if m.VocabularyPath != "" {
		v, err := vocab.LoadFile(m.VocabularyPath)
		switch {
		case err == nil:
			return p.setVocabulary(ctx, v, sourceFile)
		case !errors.Is(err, symbol.ErrNotFound):
			return PhaseResult{Err: err}
		}
		p.log.DebugContext(ctx, "vocabulary file not found", slog.String("path", m.VocabularyPath))
	}

	if m.SymbolsPath != "" {
		v, err := vocab.Build(m.SymbolsPath, vocab.Options{
			SkipHeader:  m.SkipHeader,
			SymbolField: m.SymbolField,
			Progress:    p.progress(ctx, "symbols"),
		})
		if err != nil {
			return PhaseResult{Err: err}
		}
		return p.setVocabulary(ctx, v, sourceManifest)
	}

	if p.catalog != nil {
		v, err := p.catalog.GetVocabulary(ctx, p.cfg.Database.VocabularyName)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("catalog: %w", err)}
		}
		return p.setVocabulary(ctx, v, sourceCatalog)
	}

	return PhaseResult{Err: errors.New("no vocabulary source configured")}
}

func (p *Pipeline) setVocabulary(ctx context.Context, v symbol.Vocabulary, source string) PhaseResult {
	p.vocab = v
	p.vocabReady = true
	p.vocabSource = source
	p.log.InfoContext(ctx, "vocabulary ready",
		slog.String("source", source),
		slog.Int("symbols", v.Len()),
	)
	return PhaseResult{Records: v.Len()}
}

// runCatalog stores the vocabulary under database.vocabulary_name.
func (p *Pipeline) runCatalog(ctx context.Context) PhaseResult {
	if p.catalog == nil {
		p.log.InfoContext(ctx, "catalog not configured, skipping")
		return PhaseResult{Skipped: 1}
	}
	if !p.vocabReady {
		return PhaseResult{Err: errNoVocabulary}
	}
	if p.vocabSource == sourceCatalog {
		return PhaseResult{Skipped: p.vocab.Len()}
	}
	if p.cfg.Pipeline.DryRun {
		return PhaseResult{Skipped: p.vocab.Len()}
	}

	n, err := p.catalog.SaveVocabulary(ctx, symbol.VocabularyInfo{
		Name:       p.cfg.Database.VocabularyName,
		SourcePath: p.cfg.Manifest.SymbolsPath,
		RunID:      p.runID,
		Size:       p.vocab.Len(),
	}, p.vocab)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("save vocabulary: %w", err)}
	}
	return PhaseResult{Records: n}
}

// runLoad loads every configured split. Splits load concurrently; each load
// reads its manifest sequentially. In dry-run mode manifests are only checked
// against the vocabulary and no image is decoded.
func (p *Pipeline) runLoad(ctx context.Context) PhaseResult {
	if !p.vocabReady {
		return PhaseResult{Err: errNoVocabulary}
	}

	splits := p.cfg.Manifest.Splits()
	if len(splits) == 0 {
		p.log.InfoContext(ctx, "no split manifests configured, skipping")
		return PhaseResult{Skipped: 1}
	}

	var (
		records atomic.Int64
		failed  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	if limit := p.cfg.Pipeline.ParallelSplits; limit > 0 {
		g.SetLimit(limit)
	}

	for _, name := range slices.Sorted(maps.Keys(splits)) {
		path := splits[name]
		g.Go(func() error {
			sctx := ctxutil.WithSplit(gctx, name)

			n, err := p.loadSplit(sctx, name, path)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					failed.Add(1)
				}
				return fmt.Errorf("split %s: %w", name, err)
			}
			records.Add(int64(n))
			p.log.InfoContext(sctx, "split loaded", slog.Int("samples", n))
			return nil
		})
	}

	err := g.Wait()
	return PhaseResult{Records: int(records.Load()), Errors: int(failed.Load()), Err: err}
}

func (p *Pipeline) loadSplit(ctx context.Context, name, path string) (int, error) {
	if p.cfg.Pipeline.DryRun {
		return dataset.Check(path, p.vocab.SymbolToID, p.cfg.Manifest.SkipHeader)
	}

	ds, err := dataset.LoadWithVocabulary(ctx, path, p.vocab, dataset.Options{
		SkipHeader: p.cfg.Manifest.SkipHeader,
		Source:     p.images,
		Progress:   p.progress(ctx, name),
	})
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.datasets[name] = ds
	p.mu.Unlock()
	return ds.Len(), nil
}

// runExport writes every loaded split as <split>.bin[.zst|.lz4] and, when
// enabled, the vocabulary as vocabulary.json into export.dir.
func (p *Pipeline) runExport(ctx context.Context) PhaseResult {
	if p.cfg.Pipeline.DryRun || p.cfg.Export.Dir == "" {
		return PhaseResult{Skipped: 1}
	}

	if load, ok := p.results[PhaseLoad]; ok && load.Err != nil {
		return PhaseResult{Skipped: 1, Err: errLoadFailed}
	}

	codec, err := compress.ParseCodec(p.cfg.Export.Codec)
	if err != nil {
		return PhaseResult{Err: err}
	}

	p.mu.Lock()
	datasets := maps.Clone(p.datasets)
	p.mu.Unlock()

	var result PhaseResult
	for _, name := range slices.Sorted(maps.Keys(datasets)) {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		path := filepath.Join(p.cfg.Export.Dir, name+".bin"+codec.Extension())
		ds := datasets[name]
		if err := archive.Write(path, p.runID, ds); err != nil {
			result.Errors++
			result.Err = err
			return result
		}
		result.Records += ds.Len()
		p.log.InfoContext(ctx, "archive written",
			slog.String("split", name),
			slog.String("path", path),
			slog.Int("samples", ds.Len()),
		)
	}

	if p.cfg.Export.WriteVocabulary && p.vocabReady {
		path := filepath.Join(p.cfg.Export.Dir, VocabularyFile)
		if err := vocab.Save(path, p.vocab); err != nil {
			result.Errors++
			result.Err = err
			return result
		}
	}

	return result
}

// progress logs manifest progress at debug level roughly every tenth of the
// manifest.
func (p *Pipeline) progress(ctx context.Context, what string) manifest.ProgressFunc {
	return func(done, total int) {
		step := max(total/10, 1)
		if done%step != 0 && done != total {
			return
		}
		p.log.DebugContext(ctx, "manifest progress",
			slog.String("manifest", what),
			slog.Int("done", done),
			slog.Int("total", total),
		)
	}
}
