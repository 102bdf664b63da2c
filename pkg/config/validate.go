package config

import (
	"errors"
	"fmt"

	"github.com/heartmarshall/symbolset/internal/compress"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// Validate performs cross-field validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Manifest.validate(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if c.Manifest.SymbolsPath == "" && c.Manifest.VocabularyPath == "" && !c.Database.Enabled() {
		return errors.New("manifest: symbols_path, vocabulary_path or database.dsn is required")
	}
	if err := c.validateImages(); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database: min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if _, err := compress.ParseCodec(c.Export.Codec); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log: format must be json or text (got %q)", c.Log.Format)
	}
	if c.Pipeline.ParallelSplits < 1 {
		return fmt.Errorf("pipeline: parallel_splits must be >= 1 (got %d)", c.Pipeline.ParallelSplits)
	}
	return nil
}

func (m *ManifestConfig) validate() error {
	if m.SymbolField < 0 || m.SymbolField >= symbol.RecordFields {
		return fmt.Errorf("symbol_field must be in [0,%d) (got %d)", symbol.RecordFields, m.SymbolField)
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be >= 0 (got %d)", c.Images.RateLimit)
	}
	switch c.Images.Backend {
	case BackendLocal:
	case BackendMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return errors.New("minio backend requires minio.endpoint and minio.bucket")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 backend requires s3.bucket")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Images.Backend)
	}
	return nil
}
