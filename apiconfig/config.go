// Package apiconfig holds the indexer's configuration record and its
// koanf-backed loader: typed struct with koanf tags, defaults merged
// under file and environment overrides.
package apiconfig

import (
	"fmt"
	"net/url"
	"strings"

	"chain-indexer/errs"
)

// CaseMode selects the deep key-case conversion applied to decoded
// message payloads.
type CaseMode string

const (
	CaseSnake CaseMode = "snake"
	CaseCamel CaseMode = "camel"
)

// SinkKind selects which Sink implementation the runner writes to.
type SinkKind string

const (
	SinkStdout     SinkKind = "stdout"
	SinkFile       SinkKind = "file"
	SinkPostgres   SinkKind = "postgres"
	SinkNull       SinkKind = "null"
	SinkClickhouse SinkKind = "clickhouse"
)

// SinkMode selects transaction granularity for the postgres sink.
type SinkMode string

const (
	ModeBatchInsert  SinkMode = "batch-insert"
	ModeBlockAtomic  SinkMode = "block-atomic"
)

type Config struct {
	Source      SourceConfig      `koanf:"source"`
	Range       RangeConfig       `koanf:"range"`
	Concurrency ConcurrencyConfig `koanf:"concurrency"`
	Sink        SinkConfig        `koanf:"sink"`
	Pg          PgConfig          `koanf:"pg"`
	LogLevel    string            `koanf:"log_level"`
	LogPretty   bool              `koanf:"log_pretty"`
}

type SourceConfig struct {
	RpcUrl        string  `koanf:"rpc_url"`
	TimeoutMs     int     `koanf:"timeout_ms"`
	Rps           float64 `koanf:"rps"`
	Retries       int     `koanf:"retries"`
	BackoffMs     int     `koanf:"backoff_ms"`
	BackoffJitter float64 `koanf:"backoff_jitter"`
}

type RangeConfig struct {
	From             *uint64 `koanf:"from"`
	To               string  `koanf:"to"` // decimal string or "latest"; empty means unset
	Resume           bool    `koanf:"resume"`
	FirstBlock       uint64  `koanf:"first_block"`
	Follow           bool    `koanf:"follow"`
	FollowIntervalMs int     `koanf:"follow_interval_ms"`
}

type ConcurrencyConfig struct {
	Concurrency         int      `koanf:"concurrency"`
	BlockTimeoutMs      int      `koanf:"block_timeout_ms"`
	MaxBlockRetries     int      `koanf:"max_block_retries"`
	ProgressEveryBlocks int      `koanf:"progress_every_blocks"`
	ProgressIntervalSec int      `koanf:"progress_interval_sec"`
	CaseMode            CaseMode `koanf:"case_mode"`
	PoolSize            int      `koanf:"pool_size"`
}

type SinkConfig struct {
	Kind      SinkKind `koanf:"kind"`
	OutPath   string   `koanf:"out_path"`
	FlushEvery int     `koanf:"flush_every"`
}

type PgConfig struct {
	Host        string   `koanf:"host"`
	Port        int      `koanf:"port"`
	User        string   `koanf:"user"`
	Password    string   `koanf:"password"`
	Database    string   `koanf:"database"`
	SSL         bool     `koanf:"ssl"`
	Mode        SinkMode `koanf:"mode"`
	BatchBlocks int      `koanf:"batch_blocks"`
	BatchTxs    int      `koanf:"batch_txs"`
	BatchMsgs   int      `koanf:"batch_msgs"`
	BatchEvents int      `koanf:"batch_events"`
	BatchAttrs  int      `koanf:"batch_attrs"`
	PoolSize    int      `koanf:"pool_size"`
	ProgressID  string   `koanf:"progress_id"`
	EventHashModulus int `koanf:"event_hash_modulus"`
}

// Defaults holds the indexer's built-in defaults, overridden by file and
// environment layers.
func Defaults() Config {
	return Config{
		Source: SourceConfig{
			TimeoutMs:     5000,
			Rps:           150,
			Retries:       3,
			BackoffMs:     250,
			BackoffJitter: 0.3,
		},
		Range: RangeConfig{
			FirstBlock:       5200792,
			FollowIntervalMs: 5000,
		},
		Concurrency: ConcurrencyConfig{
			Concurrency:         48,
			BlockTimeoutMs:      30000,
			MaxBlockRetries:     3,
			ProgressEveryBlocks: 1000,
			ProgressIntervalSec: 15,
			CaseMode:            CaseSnake,
			PoolSize:            8,
		},
		Sink: SinkConfig{
			Kind:       SinkStdout,
			FlushEvery: 100,
		},
		Pg: PgConfig{
			Port:             5432,
			Mode:             ModeBatchInsert,
			BatchBlocks:      1000,
			BatchTxs:         2000,
			BatchMsgs:        5000,
			BatchEvents:      10000,
			BatchAttrs:       30000,
			PoolSize:         16,
			ProgressID:       "default",
			EventHashModulus: 16,
		},
		LogLevel: "info",
	}
}

// Validate raises errs.ErrConfig for every condition that should be
// fatal at start-up.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.RpcUrl) == "" {
		return errs.ErrConfig.Wrap("source.rpc_url is required")
	}
	u, err := url.Parse(c.Source.RpcUrl)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errs.ErrConfig.Wrapf("source.rpc_url must be http(s): %q", c.Source.RpcUrl)
	}
	if c.Source.TimeoutMs <= 0 {
		return errs.ErrConfig.Wrap("source.timeout_ms must be positive")
	}
	if c.Source.Rps <= 0 {
		return errs.ErrConfig.Wrap("source.rps must be positive")
	}
	if c.Source.Retries < 0 {
		return errs.ErrConfig.Wrap("source.retries must be non-negative")
	}
	if c.Source.BackoffJitter < 0 || c.Source.BackoffJitter > 1 {
		return errs.ErrConfig.Wrap("source.backoff_jitter must be in [0,1]")
	}
	if c.Concurrency.Concurrency <= 0 {
		return errs.ErrConfig.Wrap("concurrency.concurrency must be positive")
	}
	if c.Concurrency.PoolSize <= 0 {
		return errs.ErrConfig.Wrap("concurrency.pool_size must be positive")
	}
	if c.Concurrency.CaseMode != CaseSnake && c.Concurrency.CaseMode != CaseCamel {
		return errs.ErrConfig.Wrapf("concurrency.case_mode must be snake or camel: %q", c.Concurrency.CaseMode)
	}
	if c.Range.From != nil && c.Range.To != "" && c.Range.To != "latest" {
		to, err := parseHeight(c.Range.To)
		if err != nil {
			return errs.ErrConfig.Wrapf("range.to is not a valid height or 'latest': %q", c.Range.To)
		}
		if to < *c.Range.From {
			return errs.ErrConfig.Wrapf("range.to (%d) < range.from (%d)", to, *c.Range.From)
		}
	}
	switch c.Sink.Kind {
	case SinkStdout, SinkFile, SinkPostgres, SinkNull:
	case SinkClickhouse:
		return errs.ErrConfig.Wrap("sink.kind=clickhouse is recognized but not implemented")
	default:
		return errs.ErrConfig.Wrapf("unknown sink.kind: %q", c.Sink.Kind)
	}
	if c.Sink.Kind == SinkPostgres {
		if strings.TrimSpace(c.Pg.Host) == "" {
			return errs.ErrConfig.Wrap("pg.host is required when sink.kind=postgres")
		}
		if c.Pg.Mode != ModeBatchInsert && c.Pg.Mode != ModeBlockAtomic {
			return errs.ErrConfig.Wrapf("pg.mode must be batch-insert or block-atomic: %q", c.Pg.Mode)
		}
	}
	if c.Sink.Kind == SinkFile && strings.TrimSpace(c.Sink.OutPath) == "" {
		return errs.ErrConfig.Wrap("sink.out_path is required when sink.kind=file")
	}
	return nil
}

func parseHeight(s string) (uint64, error) {
	var h uint64
	_, err := fmt.Sscanf(s, "%d", &h)
	return h, err
}
