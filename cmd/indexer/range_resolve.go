package main

import (
	"context"
	"fmt"
	"strconv"

	"chain-indexer/errs"
	"chain-indexer/sink"
)

// resolveRange implements the start-up resolution: resume from the
// persisted checkpoint when requested, else an explicit from, else
// first_block; to defaults to the chain tip when absent or "latest".
func (p *pipeline) resolveRange(ctx context.Context) (from, to uint64, err error) {
	cfg := p.cfg

	switch {
	case cfg.Range.Resume:
		pgSink, ok := p.sink.(*sink.PostgresSink)
		if !ok {
			return 0, 0, errs.ErrConfig.Wrap("range.resume=true requires sink.kind=postgres")
		}
		height, ok, err := pgSink.Progress().Get(ctx, cfg.Pg.ProgressID)
		if err != nil {
			return 0, 0, fmt.Errorf("read progress: %w", err)
		}
		if ok {
			from = height + 1
		} else if cfg.Range.From != nil {
			from = *cfg.Range.From
		} else {
			from = cfg.Range.FirstBlock
		}
	case cfg.Range.From != nil:
		from = *cfg.Range.From
	default:
		from = cfg.Range.FirstBlock
	}

	if cfg.Range.To == "" || cfg.Range.To == "latest" {
		status, err := p.transport.Status(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("resolve latest height: %w", err)
		}
		to = uint64(status.LatestBlockHeight)
	} else {
		to, err = strconv.ParseUint(cfg.Range.To, 10, 64)
		if err != nil {
			return 0, 0, errs.ErrConfig.Wrapf("range.to is not a valid height: %q", cfg.Range.To)
		}
	}

	if to < from {
		return 0, 0, errs.ErrConfig.Wrapf("range.to (%d) < range.from (%d)", to, from)
	}
	return from, to, nil
}
