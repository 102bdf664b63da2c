package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "symbolset.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func validConfig() *Config {
	return &Config{
		Manifest: ManifestConfig{SymbolsPath: "symbols.csv", SymbolField: 1, SkipHeader: true},
		Images:   ImagesConfig{Backend: BackendLocal},
		Database: DatabaseConfig{MaxConns: 5, MinConns: 1},
		Export:   ExportConfig{Codec: "zstd"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Pipeline: PipelineConfig{ParallelSplits: 3},
	}
}

const validYAML = `
manifest:
  symbols_path: "data/symbols.csv"
  train_path: "data/train.csv"
  test_path: "data/test.csv"
  skip_header: true

images:
  backend: "minio"
  rate_limit: 50

minio:
  endpoint: "localhost:9000"
  bucket: "hasy"
  prefix: "images"

database:
  dsn: "postgres://u:p@localhost:5432/symbols"
  max_conns: 8

export:
  dir: "out"
  codec: "lz4"

log:
  level: "debug"
  format: "text"

pipeline:
  dry_run: true
  timeout: "5m"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, validYAML))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Manifest.SymbolsPath != "data/symbols.csv" {
		t.Errorf("manifest.symbols_path = %q", cfg.Manifest.SymbolsPath)
	}
	if cfg.Manifest.SymbolField != 1 {
		t.Errorf("manifest.symbol_field = %d, want 1 (default)", cfg.Manifest.SymbolField)
	}
	if got := cfg.Manifest.Splits(); len(got) != 2 || got["train"] != "data/train.csv" || got["test"] != "data/test.csv" {
		t.Errorf("manifest splits = %v", got)
	}

	if cfg.Images.Backend != BackendMinIO {
		t.Errorf("images.backend = %q, want minio", cfg.Images.Backend)
	}
	if cfg.Images.RateLimit != 50 {
		t.Errorf("images.rate_limit = %d, want 50", cfg.Images.RateLimit)
	}
	if cfg.MinIO.Bucket != "hasy" || cfg.MinIO.Prefix != "images" {
		t.Errorf("minio = %+v", cfg.MinIO)
	}

	if !cfg.Database.Enabled() {
		t.Error("database should be enabled")
	}
	if cfg.Database.MaxConns != 8 {
		t.Errorf("database.max_conns = %d, want 8", cfg.Database.MaxConns)
	}
	if cfg.Database.VocabularyName != "default" {
		t.Errorf("database.vocabulary_name = %q, want default", cfg.Database.VocabularyName)
	}

	if cfg.Export.Codec != "lz4" {
		t.Errorf("export.codec = %q, want lz4", cfg.Export.Codec)
	}
	if !cfg.Export.WriteVocabulary {
		t.Error("export.write_vocabulary should default to true")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want text", cfg.Log.Format)
	}
	if !cfg.Pipeline.DryRun {
		t.Error("pipeline.dry_run should be true")
	}
	if cfg.Pipeline.Timeout != 5*time.Minute {
		t.Errorf("pipeline.timeout = %v, want 5m", cfg.Pipeline.Timeout)
	}
	if cfg.Pipeline.ParallelSplits != 3 {
		t.Errorf("pipeline.parallel_splits = %d, want 3", cfg.Pipeline.ParallelSplits)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, validYAML))
	t.Setenv("EXPORT_CODEC", "none")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Export.Codec != "none" {
		t.Errorf("export.codec = %q, want none (ENV override)", cfg.Export.Codec)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn (ENV override)", cfg.Log.Level)
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("MANIFEST_SYMBOLS_PATH", "symbols.csv")
	t.Setenv("MANIFEST_TRAIN_PATH", "train.csv")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Images.Backend != BackendLocal {
		t.Errorf("images.backend = %q, want local (default)", cfg.Images.Backend)
	}
	if !cfg.Manifest.SkipHeader {
		t.Error("manifest.skip_header should default to true")
	}
	if cfg.Database.Enabled() {
		t.Error("database should be disabled without a DSN")
	}
	if cfg.Export.Codec != "zstd" {
		t.Errorf("export.codec = %q, want zstd (default)", cfg.Export.Codec)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/symbolset.yaml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, `{{{invalid yaml`))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_FalsyYAMLValuesKept(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, `
manifest:
  symbols_path: "symbols.csv"
  symbol_field: 0
  skip_header: false
database:
  migrate: false
export:
  write_vocabulary: false
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Manifest.SymbolField != 0 {
		t.Errorf("manifest.symbol_field = %d, want 0", cfg.Manifest.SymbolField)
	}
	if cfg.Manifest.SkipHeader {
		t.Error("manifest.skip_header = true, want false")
	}
	if cfg.Database.Migrate {
		t.Error("database.migrate = true, want false")
	}
	if cfg.Export.WriteVocabulary {
		t.Error("export.write_vocabulary = true, want false")
	}
}

func TestLoad_DefaultsWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", writeYAML(t, dir, `
manifest:
  symbols_path: "symbols.csv"
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Manifest.SymbolField != 1 || !cfg.Manifest.SkipHeader {
		t.Errorf("manifest = %+v, want symbol_field 1 and skip_header true", cfg.Manifest)
	}
	if !cfg.Database.Migrate || !cfg.Export.WriteVocabulary {
		t.Errorf("migrate = %v, write_vocabulary = %v, want both true", cfg.Database.Migrate, cfg.Export.WriteVocabulary)
	}
}

func TestLoad_ENVFalseOverridesDefault(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("MANIFEST_SYMBOLS_PATH", "symbols.csv")
	t.Setenv("MANIFEST_SKIP_HEADER", "false")
	t.Setenv("MANIFEST_SYMBOL_FIELD", "0")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Manifest.SkipHeader || cfg.Manifest.SymbolField != 0 {
		t.Errorf("manifest = %+v, want skip_header false and symbol_field 0", cfg.Manifest)
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_VocabularyPathInsteadOfSymbols(t *testing.T) {
	cfg := validConfig()
	cfg.Manifest.SymbolsPath = ""
	cfg.Manifest.VocabularyPath = "vocabulary.json"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CatalogOnlyVocabulary(t *testing.T) {
	cfg := validConfig()
	cfg.Manifest.SymbolsPath = ""
	cfg.Database.DSN = "postgres://localhost/symbols"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbol source", func(c *Config) { c.Manifest.SymbolsPath = "" }},
		{"symbol field negative", func(c *Config) { c.Manifest.SymbolField = -1 }},
		{"symbol field past record", func(c *Config) { c.Manifest.SymbolField = 4 }},
		{"unknown backend", func(c *Config) { c.Images.Backend = "ftp" }},
		{"minio without bucket", func(c *Config) {
			c.Images.Backend = BackendMinIO
			c.MinIO.Endpoint = "localhost:9000"
		}},
		{"s3 without bucket", func(c *Config) { c.Images.Backend = BackendS3 }},
		{"negative rate limit", func(c *Config) { c.Images.RateLimit = -1 }},
		{"min conns above max", func(c *Config) {
			c.Database.DSN = "postgres://localhost/x"
			c.Database.MinConns = 10
		}},
		{"unknown codec", func(c *Config) { c.Export.Codec = "gzip" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"no parallel splits", func(c *Config) { c.Pipeline.ParallelSplits = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
