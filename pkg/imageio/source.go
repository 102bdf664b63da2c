package imageio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// Source opens image files by the path written in a manifest.
// Implementations return an error satisfying errors.Is(err, symbol.ErrNotFound)
// for missing objects.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileSource reads images from the local filesystem. Relative names are
// joined to Root; an empty Root resolves them against the working directory.
type FileSource struct {
	Root string
}

// Open opens name for reading.
func (s FileSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path := name
	if s.Root != "" && !filepath.IsAbs(name) {
		path = filepath.Join(s.Root, name)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", path, symbol.ErrNotFound, err)
		}
		return nil, err
	}
	return f, nil
}

// Load opens name from src and decodes it to grayscale. Every failure wraps
// symbol.ErrImageLoadFailed together with its cause.
func Load(ctx context.Context, src Source, name string) (symbol.Image, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return symbol.Image{}, fmt.Errorf("%w: %s: %w", symbol.ErrImageLoadFailed, name, err)
	}
	defer rc.Close()

	img, _, err := DecodeGray(rc)
	if err != nil {
		return symbol.Image{}, fmt.Errorf("%w: %s: %w", symbol.ErrImageLoadFailed, name, err)
	}
	return img, nil
}

// RateLimited wraps src so each Open waits for one token from limiter.
// A nil limiter returns src unchanged.
func RateLimited(src Source, limiter *rate.Limiter) Source {
	if limiter == nil {
		return src
	}
	return &limitedSource{inner: src, limiter: limiter}
}

type limitedSource struct {
	inner   Source
	limiter *rate.Limiter
}

func (s *limitedSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return s.inner.Open(ctx, name)
}

// NewLimiter returns a limiter allowing perSecond opens with an equal burst,
// or nil when perSecond is not positive.
func NewLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}
