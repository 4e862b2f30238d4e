package sink

import (
	"context"

	"chain-indexer/apiconfig"
	"chain-indexer/errs"
)

// New constructs the Sink implementation selected by cfg.Sink.Kind.
// cfg.Validate is assumed to have already rejected sink.kind=clickhouse
// and any missing required fields for the chosen kind.
func New(ctx context.Context, cfg apiconfig.Config) (Sink, error) {
	switch cfg.Sink.Kind {
	case apiconfig.SinkNull:
		return NewNullSink(), nil
	case apiconfig.SinkStdout:
		return NewStdoutSink(), nil
	case apiconfig.SinkFile:
		return NewFileSink(cfg.Sink.OutPath, cfg.Sink.FlushEvery)
	case apiconfig.SinkPostgres:
		return NewPostgresSink(ctx, cfg.Pg)
	default:
		return nil, errs.ErrConfig.Wrapf("unsupported sink kind: %q", cfg.Sink.Kind)
	}
}
