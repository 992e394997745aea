package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/formatbench/pkg/columnar"
	"github.com/ajitpratap0/formatbench/pkg/compression"
	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/formats"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "FORMATBENCH"

// RunConfig is the configuration of one formatbench invocation. The table
// catalog itself lives in a separate document referenced by Catalog.
type RunConfig struct {
	// Catalog is the path of the TOML or YAML table catalog
	Catalog string `mapstructure:"catalog" yaml:"catalog"`
	// DataDir resolves relative source paths in the catalog
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// OutputDir receives <table>.<ext> artifacts
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	Ingest        IngestConfig        `mapstructure:"ingest" yaml:"ingest"`
	Encoding      EncodingConfig      `mapstructure:"encoding" yaml:"encoding"`
	Bench         BenchConfig         `mapstructure:"bench" yaml:"bench"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// IngestConfig controls chunking and table parallelism.
type IngestConfig struct {
	// ChunkRows is the number of rows per chunk, at most columnar.MaxChunkRows
	ChunkRows int `mapstructure:"chunk_rows" yaml:"chunk_rows"`
	// Workers is the number of tables converted concurrently
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// EncodingConfig selects the compression of each output format.
type EncodingConfig struct {
	ParquetCompression string `mapstructure:"parquet_compression" yaml:"parquet_compression"`
	IPCCompression     string `mapstructure:"ipc_compression" yaml:"ipc_compression"`
	CSVCompression     string `mapstructure:"csv_compression" yaml:"csv_compression"`
}

// BenchConfig configures the load benchmark.
type BenchConfig struct {
	Trials int `mapstructure:"trials" yaml:"trials"`
	// Results is the CSV results path; "-" writes to stdout
	Results string `mapstructure:"results" yaml:"results"`
	// ResultsJSON optionally writes the same results as JSON
	ResultsJSON string `mapstructure:"results_json" yaml:"results_json"`
	// DSN of the DuckDB database; empty means in-memory
	DSN        string   `mapstructure:"dsn" yaml:"dsn"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	Formats    []string `mapstructure:"formats" yaml:"formats"`
}

// ObservabilityConfig holds logging, tracing and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogEncoding string `mapstructure:"log_encoding" yaml:"log_encoding"`
	Tracing     bool   `mapstructure:"tracing" yaml:"tracing"`
	// MetricsAddr enables the Prometheus endpoint when non-empty
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// SetDefaults registers every key with its default value. Keys must be
// registered for AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("catalog", "")
	v.SetDefault("data_dir", "")
	v.SetDefault("output_dir", "out")

	v.SetDefault("ingest.chunk_rows", columnar.MaxChunkRows)
	v.SetDefault("ingest.workers", 1)

	v.SetDefault("encoding.parquet_compression", "snappy")
	v.SetDefault("encoding.ipc_compression", "none")
	v.SetDefault("encoding.csv_compression", "none")

	v.SetDefault("bench.trials", 5)
	v.SetDefault("bench.results", "results.csv")
	v.SetDefault("bench.results_json", "")
	v.SetDefault("bench.dsn", "")
	v.SetDefault("bench.extensions", []string{"parquet"})
	v.SetDefault("bench.formats", []string{"parquet", "arrow", "arrows", "csv", "tbl"})

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_encoding", "console")
	v.SetDefault("observability.tracing", false)
	v.SetDefault("observability.metrics_addr", "")
}

// NewViper returns a viper instance with defaults and FORMATBENCH_*
// environment lookup configured, e.g. FORMATBENCH_INGEST_WORKERS.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional configuration file at path into v and decodes
// the merged settings. Flags bound to v take precedence over the file and
// the environment.
func Load(v *viper.Viper, path string) (*RunConfig, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "config file not found").
				WithDetail("path", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "error reading config file").
				WithDetail("path", path)
		}
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "error unmarshaling config")
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations. It does not require Catalog,
// which only some commands need.
func (c *RunConfig) Validate() error {
	if c.Ingest.ChunkRows <= 0 || c.Ingest.ChunkRows > columnar.MaxChunkRows {
		return invalid("ingest.chunk_rows must be in 1..%d, got %d", columnar.MaxChunkRows, c.Ingest.ChunkRows)
	}
	if c.Ingest.Workers <= 0 {
		return invalid("ingest.workers must be positive, got %d", c.Ingest.Workers)
	}
	if c.OutputDir == "" {
		return invalid("output_dir is required")
	}
	if err := c.WriterConfig().Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid encoding configuration")
	}
	if c.Bench.Trials <= 0 {
		return invalid("bench.trials must be positive, got %d", c.Bench.Trials)
	}
	for _, f := range c.Bench.Formats {
		if f == "tbl" {
			continue
		}
		if _, err := formats.ParseFormat(f); err != nil {
			return invalid("bench.formats: %v", err)
		}
	}
	return nil
}

// RequireCatalog reports a missing catalog path.
func (c *RunConfig) RequireCatalog() error {
	if c.Catalog == "" {
		return errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingField, "catalog path is required").
			WithDetail("field", "catalog")
	}
	return nil
}

// WriterConfig projects the encoding section onto format writer settings.
// Unknown CSV compression names pass through unchanged so Validate rejects
// them.
func (c *RunConfig) WriterConfig() *formats.WriterConfig {
	wc := formats.DefaultWriterConfig()
	wc.ParquetCompression = c.Encoding.ParquetCompression
	wc.IPCCompression = c.Encoding.IPCCompression
	alg, err := compression.ParseAlgorithm(c.Encoding.CSVCompression)
	if err != nil {
		alg = compression.Algorithm(c.Encoding.CSVCompression)
	}
	wc.CSVCompression = alg
	return wc
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.ErrorTypeConfig, fmt.Sprintf(format, args...))
}
