// Package config loads pipeline settings from YAML and environment
// variables.
package config

import "time"

// Defaults returns the defaults of fields whose zero value is a valid setting.
// cleanenv treats a zero value as unset, so these cannot use env-default.
func Defaults() Config {
	return Config{
		Manifest: ManifestConfig{SymbolField: 1, SkipHeader: true},
		Database: DatabaseConfig{Migrate: true},
		Export:   ExportConfig{WriteVocabulary: true},
	}
}

// Image backends.
const (
	BackendLocal = "local"
	BackendMinIO = "minio"
	BackendS3    = "s3"
)

// Config is the root pipeline configuration.
type Config struct {
	Manifest ManifestConfig `yaml:"manifest"`
	Images   ImagesConfig   `yaml:"images"`
	MinIO    MinIOConfig    `yaml:"minio"`
	S3       S3Config       `yaml:"s3"`
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ManifestConfig locates the symbol manifest and the label manifests of
// each split.
type ManifestConfig struct {
	SymbolsPath    string `yaml:"symbols_path"    env:"MANIFEST_SYMBOLS_PATH"`
	SymbolField    int    `yaml:"symbol_field"    env:"MANIFEST_SYMBOL_FIELD"`
	VocabularyPath string `yaml:"vocabulary_path" env:"MANIFEST_VOCABULARY_PATH"`
	TrainPath      string `yaml:"train_path"      env:"MANIFEST_TRAIN_PATH"`
	ValidationPath string `yaml:"validation_path" env:"MANIFEST_VALIDATION_PATH"`
	TestPath       string `yaml:"test_path"       env:"MANIFEST_TEST_PATH"`
	SkipHeader     bool   `yaml:"skip_header"     env:"MANIFEST_SKIP_HEADER"`
}

// Splits returns the configured label manifests keyed by split name.
func (c ManifestConfig) Splits() map[string]string {
	splits := make(map[string]string, 3)
	for name, path := range map[string]string{
		"train":      c.TrainPath,
		"validation": c.ValidationPath,
		"test":       c.TestPath,
	} {
		if path != "" {
			splits[name] = path
		}
	}
	return splits
}

// ImagesConfig selects where image files are read from.
type ImagesConfig struct {
	Backend   string `yaml:"backend"    env:"IMAGES_BACKEND"    env-default:"local"`
	Root      string `yaml:"root"       env:"IMAGES_ROOT"`
	RateLimit int    `yaml:"rate_limit" env:"IMAGES_RATE_LIMIT" env-default:"0"`
}

// MinIOConfig holds MinIO connection settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"   env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket"     env:"MINIO_BUCKET"`
	Prefix    string `yaml:"prefix"     env:"MINIO_PREFIX"`
	UseSSL    bool   `yaml:"use_ssl"    env:"MINIO_USE_SSL"    env-default:"false"`
}

// S3Config holds AWS S3 settings. Credentials come from the default AWS chain.
type S3Config struct {
	Region       string `yaml:"region"         env:"S3_REGION"         env-default:"us-east-1"`
	Bucket       string `yaml:"bucket"         env:"S3_BUCKET"`
	Prefix       string `yaml:"prefix"         env:"S3_PREFIX"`
	Endpoint     string `yaml:"endpoint"       env:"S3_ENDPOINT"`
	UsePathStyle bool   `yaml:"use_path_style" env:"S3_USE_PATH_STYLE" env-default:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings. An empty DSN disables
// the symbol catalog.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"5"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	Migrate         bool          `yaml:"migrate"            env:"DATABASE_MIGRATE"`
	VocabularyName  string        `yaml:"vocabulary_name"    env:"DATABASE_VOCABULARY_NAME"    env-default:"default"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }

// ExportConfig controls the files written by the export phase. An empty Dir
// disables export.
type ExportConfig struct {
	Dir             string `yaml:"dir"              env:"EXPORT_DIR"`
	Codec           string `yaml:"codec"            env:"EXPORT_CODEC"            env-default:"zstd"`
	WriteVocabulary bool   `yaml:"write_vocabulary" env:"EXPORT_WRITE_VOCABULARY"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// PipelineConfig holds run-wide settings.
type PipelineConfig struct {
	DryRun         bool          `yaml:"dry_run"          env:"PIPELINE_DRY_RUN"          env-default:"false"`
	Timeout        time.Duration `yaml:"timeout"          env:"PIPELINE_TIMEOUT"          env-default:"30m"`
	ParallelSplits int           `yaml:"parallel_splits"  env:"PIPELINE_PARALLEL_SPLITS"  env-default:"3"`
}
