package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	minioadapter "github.com/heartmarshall/symbolset/internal/adapter/objstore/minio"
	s3adapter "github.com/heartmarshall/symbolset/internal/adapter/objstore/s3"
	"github.com/heartmarshall/symbolset/internal/adapter/postgres"
	"github.com/heartmarshall/symbolset/internal/adapter/postgres/symbolcatalog"
	"github.com/heartmarshall/symbolset/pkg/config"
	"github.com/heartmarshall/symbolset/pkg/imageio"
	"github.com/heartmarshall/symbolset/pkg/logging"
)

// Open wires a Pipeline from cfg: the logger, the image source selected by
// images.backend and, when a DSN is set, the migrated symbol catalog.
// The returned close function releases the database pool.
func Open(ctx context.Context, cfg config.Config) (*Pipeline, func(), error) {
	log := logging.New(cfg.Log)

	images, err := NewImageSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	var catalog Catalog

	if cfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: %w", err)
		}

		if cfg.Database.Migrate {
			n, err := postgres.Migrate(ctx, pool)
			if err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("catalog: migrate: %w", err)
			}
			log.Info("catalog migrated", slog.Int("applied", n))
		}

		catalog = symbolcatalog.New(pool)
		closeFn = pool.Close
	}

	log.Info("pipeline configured",
		slog.String("images_backend", cfg.Images.Backend),
		slog.Bool("catalog", catalog != nil),
		slog.String("export_dir", cfg.Export.Dir),
	)

	return New(log, cfg, images, catalog), closeFn, nil
}

// NewImageSource returns the imageio.Source for images.backend, throttled to
// images.rate_limit opens per second when set.
func NewImageSource(ctx context.Context, cfg config.Config) (imageio.Source, error) {
	var src imageio.Source

	switch cfg.Images.Backend {
	case config.BackendMinIO:
		client, err := minioadapter.NewClient(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		src = minioadapter.New(client, cfg.MinIO.Bucket, cfg.MinIO.Prefix)
	case config.BackendS3:
		client, err := s3adapter.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		src = s3adapter.New(client, cfg.S3.Bucket, cfg.S3.Prefix)
	case config.BackendLocal, "":
		src = imageio.FileSource{Root: cfg.Images.Root}
	default:
		return nil, fmt.Errorf("unknown image backend %q", cfg.Images.Backend)
	}

	return imageio.RateLimited(src, imageio.NewLimiter(cfg.Images.RateLimit)), nil
}
