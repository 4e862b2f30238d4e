package main

import (
	"context"
	"fmt"

	"chain-indexer/apiconfig"
	"chain-indexer/decoder"
	"chain-indexer/logging"
	"chain-indexer/normalize"
	"chain-indexer/rpcclient"
	"chain-indexer/sink"

	"github.com/spf13/cobra"
)

// pipeline bundles every stage the runner wires together, plus the
// loaded configuration driving it.
type pipeline struct {
	cfg       apiconfig.Config
	transport *rpcclient.Transport
	decoder   *decoder.Pool
	sink      sink.Sink
}

func loadConfig(cmd *cobra.Command) (apiconfig.Config, error) {
	cfg, err := apiconfig.Load(configPath, cmd.Flags())
	if err != nil {
		return apiconfig.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return apiconfig.Config{}, err
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

func buildPipeline(ctx context.Context, cfg apiconfig.Config) (*pipeline, error) {
	transport, err := rpcclient.New(rpcclient.Options{
		RpcUrl:        cfg.Source.RpcUrl,
		TimeoutMs:     cfg.Source.TimeoutMs,
		Rps:           cfg.Source.Rps,
		Retries:       cfg.Source.Retries,
		BackoffMs:     cfg.Source.BackoffMs,
		BackoffJitter: cfg.Source.BackoffJitter,
	})
	if err != nil {
		return nil, fmt.Errorf("build rpc transport: %w", err)
	}

	registry := decoder.NewRegistry()
	caseConvert := normalize.ForMode(string(cfg.Concurrency.CaseMode))
	pool := decoder.NewPool(registry, cfg.Concurrency.PoolSize, caseConvert)

	sk, err := sink.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build sink: %w", err)
	}

	return &pipeline{cfg: cfg, transport: transport, decoder: pool, sink: sk}, nil
}

func (p *pipeline) close(ctx context.Context) {
	p.decoder.Close()
	if err := p.sink.Close(ctx); err != nil {
		logging.Error("sink close failed", logging.Sink, "error", err)
	}
}
