package main

import (
	"fmt"
	"os"
	"time"

	"chain-indexer/logging"
	"chain-indexer/runner"

	"github.com/spf13/cobra"
)

func backfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "ingest a closed height range",
		RunE:  runBackfill,
	}
	addSourceFlags(cmd)
	addSinkFlags(cmd)
	addRangeFlags(cmd)
	return cmd
}

func runBackfill(cmd *cobra.Command, args []string) error {
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

	logging.Info("starting backfill", logging.Runner, "from", from, "to", to)

	runErr := runner.Run(ctx, runner.Deps{
		Transport: p.transport,
		Decoder:   p.decoder,
		Sink:      p.sink,
	}, runner.Options{
		From:                from,
		To:                  to,
		Concurrency:         cfg.Concurrency.Concurrency,
		BlockTimeout:        time.Duration(cfg.Concurrency.BlockTimeoutMs) * time.Millisecond,
		MaxBlockRetries:     cfg.Concurrency.MaxBlockRetries,
		ProgressEveryBlocks: cfg.Concurrency.ProgressEveryBlocks,
		ProgressInterval:    time.Duration(cfg.Concurrency.ProgressIntervalSec) * time.Second,
		ReportSpeed:         true,
	})
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}

	logging.Info("backfill complete", logging.Runner, "from", from, "to", to)
	return nil
}
