// Package sink implements the write side of the pipeline: the two
// PostgreSQL transaction-granularity modes, plus the
// simple stdout/file/null sinks used for local inspection and testing.
package sink

import (
	"context"

	"chain-indexer/extractor"
)

// Sink receives one assembled block's row set at a time, in strictly
// ascending height order ordering guarantee.
type Sink interface {
	Write(ctx context.Context, rows extractor.RowSet) error
	Close(ctx context.Context) error
}
