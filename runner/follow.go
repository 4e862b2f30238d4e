package runner

import (
	"context"
	"math/rand"
	"time"

	"chain-indexer/logging"
)

// FollowOptions configures the tip-following loop.
type FollowOptions struct {
	Next                uint64
	Concurrency         int
	BlockTimeout        time.Duration
	MaxBlockRetries     int
	ProgressEveryBlocks int
	ProgressInterval    time.Duration
	PollInterval        time.Duration
}

const followConcurrencyCap = 16

// Follow polls status and repeatedly invokes Run on [next, latest] until
// ctx is canceled. It never returns under normal operation.
func Follow(ctx context.Context, deps Deps, opts FollowOptions) error {
	next := opts.Next
	concurrency := opts.Concurrency
	if concurrency > followConcurrencyCap {
		concurrency = followConcurrencyCap
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		status, err := deps.Transport.Status(ctx)
		if err != nil {
			logging.Warn("follow: status check failed", logging.Runner, "error", err)
			if !sleepJittered(ctx, opts.PollInterval) {
				return ctx.Err()
			}
			continue
		}

		latest := uint64(status.LatestBlockHeight)
		if next <= latest {
			runErr := Run(ctx, deps, Options{
				From:                next,
				To:                  latest,
				Concurrency:         concurrency,
				BlockTimeout:        opts.BlockTimeout,
				MaxBlockRetries:     opts.MaxBlockRetries,
				ProgressEveryBlocks: opts.ProgressEveryBlocks,
				ProgressInterval:    opts.ProgressInterval,
				ReportSpeed:         false,
			})
			if runErr != nil {
				return runErr
			}
			if flusher, ok := deps.Sink.(interface{ Flush(context.Context) error }); ok {
				if err := flusher.Flush(ctx); err != nil {
					return err
				}
			}
			next = latest + 1
			continue
		}

		if !sleepJittered(ctx, opts.PollInterval) {
			return ctx.Err()
		}
	}
}

// sleepJittered sleeps interval*uniform(0.8,1.2), returning false if ctx
// is canceled first.
func sleepJittered(ctx context.Context, interval time.Duration) bool {
	jittered := time.Duration(float64(interval) * (0.8 + 0.4*rand.Float64()))
	timer := time.NewTimer(jittered)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
