// Package config loads formatbench run settings.
//
// Settings come from three layers, later layers winning:
//
//  1. defaults registered by SetDefaults
//  2. an optional YAML or TOML file passed with --config
//  3. FORMATBENCH_* environment variables and command-line flags
//
// Nested keys map to environment variables by upper-casing and replacing
// dots with underscores:
//
//	ingest.workers               FORMATBENCH_INGEST_WORKERS
//	encoding.parquet_compression FORMATBENCH_ENCODING_PARQUET_COMPRESSION
//	bench.trials                 FORMATBENCH_BENCH_TRIALS
//
// # Usage
//
//	v := config.NewViper()
//	_ = v.BindPFlag("ingest.workers", cmd.Flags().Lookup("workers"))
//	cfg, err := config.Load(v, configPath)
//	if err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// The table catalog is a separate document, parsed by package schema.
package config
