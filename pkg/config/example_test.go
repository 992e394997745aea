package config_test

import (
	"fmt"

	"github.com/ajitpratap0/formatbench/pkg/config"
)

// ExampleLoad demonstrates loading the default run configuration.
func ExampleLoad() {
	v := config.NewViper()
	v.Set("ingest.workers", 4)

	cfg, err := config.Load(v, "")
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("Chunk rows: %d\n", cfg.Ingest.ChunkRows)
	fmt.Printf("Workers: %d\n", cfg.Ingest.Workers)
	fmt.Printf("Parquet compression: %s\n", cfg.Encoding.ParquetCompression)
	fmt.Printf("Valid: %v\n", cfg.Validate() == nil)

	// Output:
	// Chunk rows: 122880
	// Workers: 4
	// Parquet compression: snappy
	// Valid: true
}

// ExampleRunConfig_Validate shows a rejected chunk size.
func ExampleRunConfig_Validate() {
	v := config.NewViper()
	v.Set("ingest.chunk_rows", 200000)

	cfg, _ := config.Load(v, "")
	fmt.Println(cfg.Validate())

	// Output:
	// config: ingest.chunk_rows must be in 1..122880, got 200000
}
