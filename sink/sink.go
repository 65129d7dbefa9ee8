// Package sink writes generated rows to their destination.
//
// A Sink opens one Writer per table. The SQL sink inserts rows in
// multi-row INSERT statements; the msgpack sink streams them as
// self-describing records, which is useful for dry runs and for loading
// the data elsewhere.
package sink

import (
	"context"

	"github.com/syssam/xorgen/generator"
)

// Sink opens table writers. Writers of different tables may be used
// from different goroutines.
type Sink interface {
	Open(ctx context.Context, table string, columns []string) (Writer, error)
	Close() error
}

// Writer receives the rows of one table. A Writer is not safe for
// concurrent use.
type Writer interface {
	// Write adds one row. Rows may be buffered until Close.
	Write(ctx context.Context, row []generator.Value) error
	// Close flushes buffered rows.
	Close(ctx context.Context) error
	// Stats returns the writer's counters so far.
	Stats() Stats
}

// Stats counts the rows handled by a Writer.
type Stats struct {
	Rows    int64 // rows stored
	Skipped int64 // rows dropped as duplicates
	Batches int64 // statements or records flushed
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{Rows: s.Rows + o.Rows, Skipped: s.Skipped + o.Skipped, Batches: s.Batches + o.Batches}
}
