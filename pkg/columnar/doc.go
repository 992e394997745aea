// Package columnar holds the in-memory side of ingestion: one Accumulator per
// column that converts raw field text into a typed arrow builder, and the
// Chunk that bundles the finished column segments of at most MaxChunkRows
// rows.
//
// # Lifecycle
//
// An Accumulator is created from a schema.ColumnSpec, receives Append calls
// in row order and is spent after Finish. The ingestor builds a fresh set of
// accumulators for every chunk instead of resetting them, so no state leaks
// across chunk boundaries:
//
//	acc := columnar.NewAccumulator(mem, spec, columnar.MaxChunkRows)
//	for _, text := range fields {
//	    if err := acc.Append(text); err != nil {
//	        return err
//	    }
//	}
//	arr := acc.Finish()
//
// # Memory
//
// Chunks are reference counted arrow records. The consumer releases a chunk
// as soon as every encoder has written it, which bounds peak memory to one
// chunk's worth of typed values per table.
package columnar
