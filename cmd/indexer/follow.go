package main

import (
	"fmt"
	"os"
	"time"

	"chain-indexer/logging"
	"chain-indexer/runner"

	"github.com/spf13/cobra"
)

func followCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow",
		Short: "backfill a range, then follow the chain tip indefinitely",
		RunE:  runFollow,
	}
	addSourceFlags(cmd)
	addSinkFlags(cmd)
	addRangeFlags(cmd)
	return cmd
}

func runFollow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := ctxWithShutdown()
	defer cancel()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer p.close(ctx)

	from, to, err := p.resolveRange(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	deps := runner.Deps{Transport: p.transport, Decoder: p.decoder, Sink: p.sink}
	blockTimeout := time.Duration(cfg.Concurrency.BlockTimeoutMs) * time.Millisecond

	logging.Info("starting backfill before follow", logging.Runner, "from", from, "to", to)
	if err := runner.Run(ctx, deps, runner.Options{
		From:                from,
		To:                  to,
		Concurrency:         cfg.Concurrency.Concurrency,
		BlockTimeout:        blockTimeout,
		MaxBlockRetries:     cfg.Concurrency.MaxBlockRetries,
		ProgressEveryBlocks: cfg.Concurrency.ProgressEveryBlocks,
		ProgressInterval:    time.Duration(cfg.Concurrency.ProgressIntervalSec) * time.Second,
		ReportSpeed:         true,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Info("entering follow loop", logging.Runner, "next", to+1)
	err = runner.Follow(ctx, deps, runner.FollowOptions{
		Next:                to + 1,
		Concurrency:         cfg.Concurrency.Concurrency,
		BlockTimeout:        blockTimeout,
		MaxBlockRetries:     cfg.Concurrency.MaxBlockRetries,
		ProgressEveryBlocks: cfg.Concurrency.ProgressEveryBlocks,
		ProgressInterval:    time.Duration(cfg.Concurrency.ProgressIntervalSec) * time.Second,
		PollInterval:        time.Duration(cfg.Range.FollowIntervalMs) * time.Millisecond,
	})
	if err != nil {
		logging.Error("follow loop exited", logging.Runner, "error", err)
		os.Exit(1)
	}
	return nil
}
