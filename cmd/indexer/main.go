// Command chain-indexer fetches, decodes, and persists blocks from a
// Cosmos SDK / CometBFT RPC endpoint into a partitioned SQL store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "chain-indexer",
		Short: "Cosmos SDK / CometBFT chain indexing pipeline",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(backfillCmd())
	root.AddCommand(followCmd())
	root.AddCommand(statusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source.rpc_url", "", "RPC base URL")
	cmd.Flags().Int("source.timeout_ms", 0, "per-attempt RPC timeout in ms")
	cmd.Flags().Float64("source.rps", 0, "RPC requests per second")
}

func addSinkFlags(cmd *cobra.Command) {
	cmd.Flags().String("sink.kind", "", "sink kind: stdout|file|postgres|null")
	cmd.Flags().String("sink.out_path", "", "output path for sink.kind=file")
	cmd.Flags().String("pg.host", "", "postgres host")
	cmd.Flags().Int("pg.port", 0, "postgres port")
	cmd.Flags().String("pg.user", "", "postgres user")
	cmd.Flags().String("pg.password", "", "postgres password")
	cmd.Flags().String("pg.database", "", "postgres database")
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("range.from", 0, "first height to index")
	cmd.Flags().String("range.to", "", "last height to index, or 'latest'")
	cmd.Flags().Bool("range.resume", false, "resume from the persisted progress checkpoint")
}

func ctxWithShutdown() (context.Context, context.CancelFunc) {
	return notifyContext()
}
