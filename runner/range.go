// Package runner drives ordered, concurrent ingestion of a height range
// and, after backfill, follows the chain tip.
package runner

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"chain-indexer/assembler"
	"chain-indexer/decoder"
	"chain-indexer/errs"
	"chain-indexer/extractor"
	"chain-indexer/logging"
	"chain-indexer/rpcclient"
	"chain-indexer/sink"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"
)

// Options configures one invocation of Run.
type Options struct {
	From                uint64
	To                  uint64
	Concurrency         int
	BlockTimeout        time.Duration
	MaxBlockRetries     int
	ProgressEveryBlocks int
	ProgressInterval    time.Duration
	ReportSpeed         bool
}

// BlockFetcher is the subset of rpcclient.Transport the runner needs.
type BlockFetcher interface {
	Block(ctx context.Context, height int64) (*coretypes.ResultBlock, error)
	BlockResults(ctx context.Context, height int64) (*coretypes.ResultBlockResults, error)
	Status(ctx context.Context) (rpcclient.ChainStatus, error)
}

// TxDecoder is the subset of decoder.Pool the runner needs.
type TxDecoder interface {
	Submit(ctx context.Context, base64Tx string) (decoder.DecodedTx, error)
}

// Deps are the stages a range run wires together.
type Deps struct {
	Transport BlockFetcher
	Decoder   TxDecoder
	Sink      sink.Sink
}

type readyEntry struct {
	record assembler.BlockRecord
	skip   bool
	height uint64
	err    error
}

type taskResult struct {
	height uint64
	entry  readyEntry
}

// Run drives the sliding-window algorithm: spawn up to Concurrency
// in-flight heights, buffer completions by height, and flush to the
// sink in strict ascending order. It returns once every height in
// [From, To] has either been written or recorded as a skip.
func Run(ctx context.Context, deps Deps, opts Options) error {
	if opts.To < opts.From {
		return nil
	}

	results := make(chan taskResult)
	ready := map[uint64]readyEntry{}
	attempts := map[uint64]int{}
	var retryQueue []uint64

	nextHeight := opts.From
	nextToFlush := opts.From
	inFlight := 0
	processed := 0
	lastProgress := time.Now()
	start := time.Now()

	spawn := func(h uint64) {
		inFlight++
		go func() {
			entry := runOneHeight(ctx, deps, h, opts.BlockTimeout)
			select {
			case results <- taskResult{height: h, entry: entry}:
			case <-ctx.Done():
			}
		}()
	}

	for nextToFlush <= opts.To {
		for inFlight < opts.Concurrency && (nextHeight <= opts.To || len(retryQueue) > 0) {
			var h uint64
			if len(retryQueue) > 0 {
				h = retryQueue[0]
				retryQueue = retryQueue[1:]
			} else {
				h = nextHeight
				nextHeight++
			}
			spawn(h)
		}

		if inFlight == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			inFlight--
			if res.entry.err != nil {
				attempts[res.height]++
				if attempts[res.height] <= opts.MaxBlockRetries {
					logging.Warn("block processing failed, retrying", logging.Runner,
						"height", res.height, "attempt", attempts[res.height],
						"max_retries", opts.MaxBlockRetries, "error", res.entry.err)
					retryQueue = append(retryQueue, res.height)
				} else {
					blockErr := errs.ErrBlock.Wrapf("height %d: %v", res.height, res.entry.err)
					logging.Error("block processing exhausted retries, skipping", logging.Runner,
						"height", res.height, "error", blockErr)
					ready[res.height] = readyEntry{skip: true, height: res.height, err: blockErr}
				}
			} else {
				ready[res.height] = res.entry
			}
		}

		for {
			entry, ok := ready[nextToFlush]
			if !ok {
				break
			}
			if !entry.skip {
				rows := extractor.Extract(entry.record)
				if err := deps.Sink.Write(ctx, rows); err != nil {
					return errs.ErrSink.Wrapf("write height %d: %v", nextToFlush, err)
				}
			}
			delete(ready, nextToFlush)
			nextToFlush++
			processed++

			if shouldReportProgress(processed, opts.ProgressEveryBlocks, lastProgress, opts.ProgressInterval) {
				reportProgress(processed, nextToFlush, opts.To, start, opts.ReportSpeed)
				lastProgress = time.Now()
			}
		}
	}

	return nil
}

func shouldReportProgress(processed, everyBlocks int, last time.Time, interval time.Duration) bool {
	if everyBlocks > 0 && processed%everyBlocks == 0 {
		return true
	}
	return interval > 0 && time.Since(last) >= interval
}

func reportProgress(processed int, nextToFlush, to uint64, start time.Time, reportSpeed bool) {
	elapsed := time.Since(start).Seconds()
	fields := []any{"processed", processed, "next_height", nextToFlush, "target_height", to}
	if reportSpeed && elapsed > 0 {
		rate := float64(processed) / elapsed
		fields = append(fields, "blocks_per_sec", fmt.Sprintf("%.2f", rate))
		if rate > 0 && nextToFlush <= to {
			remaining := float64(to-nextToFlush+1) / rate
			fields = append(fields, "eta_sec", fmt.Sprintf("%.0f", remaining))
		}
	}
	logging.Info("ingest progress", logging.Runner, fields...)
}

// runOneHeight races fetchBlock, fetchBlockResults, each decode
// submission, and assembly, each under its own block_timeout_ms budget.
func runOneHeight(ctx context.Context, deps Deps, height uint64, timeout time.Duration) readyEntry {
	block, err := withStepTimeout(ctx, timeout, func(c context.Context) (*coretypes.ResultBlock, error) {
		return deps.Transport.Block(c, int64(height))
	})
	if err != nil {
		return readyEntry{height: height, err: fmt.Errorf("fetch block: %w", err)}
	}
	blockResults, err := withStepTimeout(ctx, timeout, func(c context.Context) (*coretypes.ResultBlockResults, error) {
		return deps.Transport.BlockResults(c, int64(height))
	})
	if err != nil {
		return readyEntry{height: height, err: fmt.Errorf("fetch block_results: %w", err)}
	}

	decodedTxs := make([]decoder.DecodedTx, len(block.Block.Data.Txs))
	for i, rawTx := range block.Block.Data.Txs {
		b64 := base64.StdEncoding.EncodeToString(rawTx)
		decoded, err := withStepTimeout(ctx, timeout, func(c context.Context) (decoder.DecodedTx, error) {
			return deps.Decoder.Submit(c, b64)
		})
		if err != nil && !errors.Is(err, errs.ErrDecode) {
			return readyEntry{height: height, err: fmt.Errorf("decode tx %d: %w", i, err)}
		}
		decodedTxs[i] = decoded
	}

	record, err := withStepTimeout(ctx, timeout, func(context.Context) (assembler.BlockRecord, error) {
		return assembler.Assemble(block, blockResults, decodedTxs), nil
	})
	if err != nil {
		return readyEntry{height: height, err: fmt.Errorf("assemble: %w", err)}
	}
	return readyEntry{height: height, record: record}
}

func withStepTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	type stepResult struct {
		value T
		err   error
	}
	done := make(chan stepResult, 1)
	go func() {
		v, err := fn(stepCtx)
		done <- stepResult{value: v, err: err}
	}()
	select {
	case r := <-done:
		return r.value, r.err
	case <-stepCtx.Done():
		var zero T
		return zero, stepCtx.Err()
	}
}
