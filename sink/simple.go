package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"chain-indexer/extractor"
)

// NullSink discards every write; used in throughput benchmarking and
// in tests that only care about the upstream pipeline stages.
type NullSink struct{}

func NewNullSink() *NullSink { return &NullSink{} }

func (NullSink) Write(context.Context, extractor.RowSet) error { return nil }
func (NullSink) Close(context.Context) error                   { return nil }

// StdoutSink writes one JSON line per block to stdout.
type StdoutSink struct {
	enc *json.Encoder
}

func NewStdoutSink() *StdoutSink {
	return &StdoutSink{enc: json.NewEncoder(os.Stdout)}
}

func (s *StdoutSink) Write(_ context.Context, rows extractor.RowSet) error {
	return s.enc.Encode(rowSetSummary(rows))
}

func (s *StdoutSink) Close(context.Context) error { return nil }

// FileSink appends one JSON line per block to a file, flushing every
// flushEvery writes.
type FileSink struct {
	f          *os.File
	enc        *json.Encoder
	writes     int
	flushEvery int
}

func NewFileSink(path string, flushEvery int) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %q: %w", path, err)
	}
	if flushEvery <= 0 {
		flushEvery = 100
	}
	return &FileSink{f: f, enc: json.NewEncoder(f), flushEvery: flushEvery}, nil
}

func (s *FileSink) Write(_ context.Context, rows extractor.RowSet) error {
	if err := s.enc.Encode(rowSetSummary(rows)); err != nil {
		return err
	}
	s.writes++
	if s.writes%s.flushEvery == 0 {
		return s.f.Sync()
	}
	return nil
}

func (s *FileSink) Close(context.Context) error {
	if err := s.f.Sync(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// rowSetSummary renders a RowSet as a compact JSON-friendly shape for
// the stdout/file sinks, which are meant for spot-checking rather than
// durable storage.
func rowSetSummary(rows extractor.RowSet) map[string]any {
	return map[string]any{
		"height":        rows.Block.Height,
		"block_hash":    rows.Block.BlockHash,
		"tx_count":      rows.Block.TxCount,
		"messages":      len(rows.Messages),
		"events":        len(rows.Events),
		"transfers":     len(rows.Transfers),
		"delegations":   len(rows.Delegations),
		"distributions": len(rows.Distributions),
		"wasm_execs":    len(rows.WasmExecutions),
		"wasm_events":   len(rows.WasmEvents),
		"gov_deposits":  len(rows.GovDeposits),
		"gov_votes":     len(rows.GovVotes),
	}
}
