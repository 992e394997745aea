// Package formatbench converts pipe-delimited text tables into columnar and
// textual file formats and measures how fast an analytical database loads
// each of them.
//
// A table catalog describes every table: its source file and an ordered
// list of typed columns. Each table is converted independently into four
// artifacts that share one schema:
//   - <table>.parquet, row groups of at most 122,880 rows
//   - <table>.arrow, the Arrow IPC file format
//   - <table>.arrows, the Arrow IPC stream format
//   - <table>.csv, with a header row and exact decimal text
//
// # Architecture
//
// The conversion path is bottom-up:
//
// 1. pkg/types parses source text into typed values (int32, int64, double,
// string, date32 and decimal128) and reports malformed input with the
// column and value that failed.
//
// 2. pkg/tbl splits a memory-mapped source file into rows of fields and
// checks the field count of each row against the catalog.
//
// 3. pkg/columnar accumulates converted values into Arrow builders and
// flushes them as chunks.
//
// 4. pkg/formats writes every chunk to all four artifacts and reads them
// back for verification.
//
// 5. internal/ingest drives one table through that path and internal/pipeline
// runs the catalog, one table per worker, keeping failures table-scoped.
//
// internal/bench then loads every artifact into an embedded DuckDB database
// and records mean load times per table and format.
//
// # Quick Start
//
//	formatbench convert --catalog tpch.toml --data-dir tpch_data --out out
//	formatbench verify --catalog tpch.toml --out out
//	formatbench bench --catalog tpch.toml --out out --trials 5 --results results.csv
//
// Every setting can also be supplied in a YAML or TOML file passed with
// --config, or as FORMATBENCH_* environment variables.
package formatbench
