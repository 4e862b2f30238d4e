package main

import (
	"fmt"
	"os"

	"chain-indexer/sink"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "print chain tip height and the persisted progress checkpoint",
		RunE:  runStatus,
	}
	addSourceFlags(cmd)
	addSinkFlags(cmd)
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	chainStatus, err := p.transport.Status(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("earliest_block_height=%d latest_block_height=%d\n",
		chainStatus.EarliestBlockHeight, chainStatus.LatestBlockHeight)

	if pgSink, ok := p.sink.(*sink.PostgresSink); ok {
		height, ok, err := pgSink.Progress().Get(ctx, cfg.Pg.ProgressID)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if ok {
			fmt.Printf("progress_id=%s last_height=%d\n", cfg.Pg.ProgressID, height)
		} else {
			fmt.Printf("progress_id=%s last_height=<none>\n", cfg.Pg.ProgressID)
		}
	}
	return nil
}
