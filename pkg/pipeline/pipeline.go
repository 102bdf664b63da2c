// Package pipeline prepares a handwritten-symbol dataset end to end: it builds
// the vocabulary, records it in the catalog, loads every split and exports
// the loaded samples as archives.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/symbolset/pkg/config"
	"github.com/heartmarshall/symbolset/pkg/ctxutil"
	"github.com/heartmarshall/symbolset/pkg/imageio"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// Phase names in canonical execution order.
const (
	PhaseVocabulary = "vocabulary"
	PhaseCatalog    = "catalog"
	PhaseLoad       = "load"
	PhaseExport     = "export"
)

var allPhases = []string{PhaseVocabulary, PhaseCatalog, PhaseLoad, PhaseExport}

// Catalog stores vocabularies so separate runs share one symbol mapping.
// Implemented by symbolcatalog.Repo.
type Catalog interface {
	SaveVocabulary(ctx context.Context, info symbol.VocabularyInfo, v symbol.Vocabulary) (int, error)
	GetVocabulary(ctx context.Context, name string) (symbol.Vocabulary, error)
}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Records  int
	Skipped  int
	Errors   int
	Duration time.Duration
	Err      error
}

// Pipeline orchestrates the preparation phases. It is not safe for
// concurrent Run calls.
type Pipeline struct {
	log     *slog.Logger
	cfg     config.Config
	images  imageio.Source
	catalog Catalog
	runID   uuid.UUID
	results map[string]PhaseResult

	vocab       symbol.Vocabulary
	vocabReady  bool
	vocabSource string

	mu       sync.Mutex
	datasets map[string]symbol.Dataset
}

// New creates a Pipeline. images may be nil to read paths from the local
// filesystem; catalog may be nil to skip the catalog phase.
func New(log *slog.Logger, cfg config.Config, images imageio.Source, catalog Catalog) *Pipeline {
	if images == nil {
		images = imageio.FileSource{Root: cfg.Images.Root}
	}
	return &Pipeline{
		log:      log,
		cfg:      cfg,
		images:   images,
		catalog:  catalog,
		runID:    uuid.New(),
		results:  make(map[string]PhaseResult),
		datasets: make(map[string]symbol.Dataset),
	}
}

// RunID identifies this pipeline run in logs, the catalog and archives.
func (p *Pipeline) RunID() uuid.UUID {
	return p.runID
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors returns true if any phase recorded errors.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil || r.Errors > 0 {
			return true
		}
	}
	return false
}

// Vocabulary returns the vocabulary produced by the vocabulary phase.
func (p *Pipeline) Vocabulary() (symbol.Vocabulary, bool) {
	return p.vocab, p.vocabReady
}

// Dataset returns the samples loaded for split by the load phase.
func (p *Pipeline) Dataset(split string) (symbol.Dataset, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ds, ok := p.datasets[split]
	return ds, ok
}

// Run executes the pipeline. If phases is non-empty, only the listed phases
// run, still in canonical order. A failing phase is recorded in Results and
// later phases still run; Run itself only fails on invalid arguments.
func (p *Pipeline) Run(ctx context.Context, phases []string) error {
	toRun := allPhases
	if len(phases) > 0 {
		for _, ph := range phases {
			if !slices.Contains(allPhases, ph) {
				return fmt.Errorf("unknown phase %q", ph)
			}
		}
		toRun = nil
		for _, ph := range allPhases {
			if slices.Contains(phases, ph) {
				toRun = append(toRun, ph)
			}
		}
	}

	if p.cfg.Pipeline.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Pipeline.Timeout)
		defer cancel()
	}
	ctx = ctxutil.WithRunID(ctx, p.runID)

	p.log.InfoContext(ctx, "pipeline started",
		slog.String("version", BuildVersion()),
		slog.Any("phases", toRun),
		slog.Bool("dry_run", p.cfg.Pipeline.DryRun),
	)

	for _, phase := range toRun {
		start := time.Now()
		p.log.InfoContext(ctx, "starting phase", slog.String("phase", phase))

		var result PhaseResult
		switch phase {
		case PhaseVocabulary:
			result = p.runVocabulary(ctx)
		case PhaseCatalog:
			result = p.runCatalog(ctx)
		case PhaseLoad:
			result = p.runLoad(ctx)
		case PhaseExport:
			result = p.runExport(ctx)
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			p.log.WarnContext(ctx, "phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
		} else {
			p.log.InfoContext(ctx, "phase completed",
				slog.String("phase", phase),
				slog.Int("records", result.Records),
				slog.Int("skipped", result.Skipped),
				slog.Duration("duration", result.Duration),
			)
		}
	}

	p.log.InfoContext(ctx, "pipeline completed", slog.Int("phases_run", len(toRun)))
	return nil
}
