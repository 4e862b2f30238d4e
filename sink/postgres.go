package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chain-indexer/apiconfig"
	"chain-indexer/extractor"
	"chain-indexer/logging"
	"chain-indexer/progress"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	statementTimeout = "30s"
	lockTimeout      = "5s"
)

// PostgresSink implements both transaction-granularity modes (block-
// atomic and batch-insert) behind one Sink interface.
type PostgresSink struct {
	pool             *pgxpool.Pool
	progress         *progress.Store
	progressID       string
	eventHashModulus int
	mode             apiconfig.SinkMode

	mu      sync.Mutex
	buffer  rowBuffer
	limits  batchLimits
}

type batchLimits struct {
	blocks, txs, msgs, events, attrs int
}

// rowBuffer accumulates rows across writes in batch-insert mode.
type rowBuffer struct {
	minHeight, maxHeight uint64
	hasRows              bool

	blocks        []extractor.BlockRow
	transactions  []extractor.TransactionRow
	messages      []extractor.MessageRow
	events        []extractor.EventRow
	attrs         []extractor.EventAttributeRow
	transfers     []extractor.TransferRow
	delegations   []extractor.StakeDelegationRow
	distributions []extractor.StakeDistributionRow
	wasmExecs     []extractor.WasmExecutionRow
	wasmEvents    []extractor.WasmEventRow
	govDeposits   []extractor.GovDepositRow
	govVotes      []extractor.GovVoteRow
	govProposals  []extractor.GovProposalRow
}

// NewPostgresSink connects to Postgres, ensures the progress schema
// exists, and returns a Sink in the configured mode.
func NewPostgresSink(ctx context.Context, cfg apiconfig.PgConfig) (*PostgresSink, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode(cfg.SSL))

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("sink: parse postgres config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.PoolSize)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("sink: connect postgres: %w", err)
	}

	progressStore := progress.NewStore(pool)
	if err := progressStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresSink{
		pool:             pool,
		progress:         progressStore,
		progressID:       cfg.ProgressID,
		eventHashModulus: cfg.EventHashModulus,
		mode:             cfg.Mode,
		limits: batchLimits{
			blocks: cfg.BatchBlocks,
			txs:    cfg.BatchTxs,
			msgs:   cfg.BatchMsgs,
			events: cfg.BatchEvents,
			attrs:  cfg.BatchAttrs,
		},
	}, nil
}

func sslMode(enabled bool) string {
	if enabled {
		return "require"
	}
	return "disable"
}

// Progress exposes the underlying progress store so callers (the
// indexer command's range resolution at start-up, and its status
// subcommand) can read the persisted checkpoint.
func (s *PostgresSink) Progress() *progress.Store { return s.progress }

func (s *PostgresSink) Write(ctx context.Context, rows extractor.RowSet) error {
	if s.mode == apiconfig.ModeBlockAtomic {
		return s.writeBlockAtomic(ctx, rows)
	}
	return s.writeBatched(ctx, rows)
}

// writeBlockAtomic implements block-atomic mode: one
// transaction per block, partitions ensured first, progress updated in
// the same transaction.
func (s *PostgresSink) writeBlockAtomic(ctx context.Context, rows extractor.RowSet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("sink: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := setTransactionTimeouts(ctx, tx); err != nil {
		return err
	}
	if err := ensureCorePartitions(ctx, tx, rows.Block.Height, rows.Block.Height, s.eventHashModulus); err != nil {
		return err
	}

	buf := rowBuffer{}
	appendRowSet(&buf, rows)
	if err := insertBuffer(ctx, tx, buf, s.limits); err != nil {
		return err
	}
	if err := progress.Upsert(ctx, tx, s.progressID, rows.Block.Height); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sink: commit: %w", err)
	}
	return nil
}

// writeBatched implements batch-insert mode: buffer
// until a per-table threshold is crossed, then flushAll.
func (s *PostgresSink) writeBatched(ctx context.Context, rows extractor.RowSet) error {
	s.mu.Lock()
	appendRowSet(&s.buffer, rows)
	overThreshold := s.buffer.overThreshold(s.limits)
	s.mu.Unlock()

	if overThreshold {
		return s.Flush(ctx)
	}
	return nil
}

// Flush implements flushAll: compute [minH, maxH], ensure partitions,
// insert every buffer, upsert progress, commit, clear buffers. On
// error the buffers are left intact for a future retry.
func (s *PostgresSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	buf := s.buffer
	s.mu.Unlock()

	if !buf.hasRows {
		return nil
	}

	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("sink: begin flush: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := setTransactionTimeouts(ctx, tx); err != nil {
		return err
	}
	if err := ensureCorePartitions(ctx, tx, buf.minHeight, buf.maxHeight, s.eventHashModulus); err != nil {
		return err
	}
	if err := insertBuffer(ctx, tx, buf, s.limits); err != nil {
		return err
	}
	if err := progress.Upsert(ctx, tx, s.progressID, buf.maxHeight); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sink: commit flush: %w", err)
	}

	s.mu.Lock()
	s.buffer = rowBuffer{}
	s.mu.Unlock()

	logging.Info("flushed batch", logging.Sink,
		"min_height", buf.minHeight, "max_height", buf.maxHeight,
		"blocks", len(buf.blocks), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *PostgresSink) Close(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	s.pool.Close()
	return nil
}

func setTransactionTimeouts(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%s'", statementTimeout)); err != nil {
		return fmt.Errorf("sink: set statement_timeout: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", lockTimeout)); err != nil {
		return fmt.Errorf("sink: set lock_timeout: %w", err)
	}
	return nil
}

func appendRowSet(buf *rowBuffer, rows extractor.RowSet) {
	buf.hasRows = true
	if buf.minHeight == 0 || rows.Block.Height < buf.minHeight {
		buf.minHeight = rows.Block.Height
	}
	if rows.Block.Height > buf.maxHeight {
		buf.maxHeight = rows.Block.Height
	}
	buf.blocks = append(buf.blocks, rows.Block)
	buf.transactions = append(buf.transactions, rows.Transactions...)
	buf.messages = append(buf.messages, rows.Messages...)
	buf.events = append(buf.events, rows.Events...)
	buf.attrs = append(buf.attrs, rows.Attributes...)
	buf.transfers = append(buf.transfers, rows.Transfers...)
	buf.delegations = append(buf.delegations, rows.Delegations...)
	buf.distributions = append(buf.distributions, rows.Distributions...)
	buf.wasmExecs = append(buf.wasmExecs, rows.WasmExecutions...)
	buf.wasmEvents = append(buf.wasmEvents, rows.WasmEvents...)
	buf.govDeposits = append(buf.govDeposits, rows.GovDeposits...)
	buf.govVotes = append(buf.govVotes, rows.GovVotes...)
	buf.govProposals = append(buf.govProposals, rows.GovProposals...)
}

func (b rowBuffer) overThreshold(limits batchLimits) bool {
	return len(b.blocks) >= limits.blocks ||
		len(b.transactions) >= limits.txs ||
		len(b.messages) >= limits.msgs ||
		len(b.events) >= limits.events ||
		len(b.attrs) >= limits.attrs
}

func insertBuffer(ctx context.Context, tx pgx.Tx, buf rowBuffer, limits batchLimits) error {
	blockRows := mapRows(buf.blocks, blockRowArgs)
	if err := insertRows(ctx, tx, "core.blocks", blockColumns, nil,
		"ON CONFLICT (height) DO NOTHING", blockRows, limits.blocks); err != nil {
		return err
	}

	txRows := mapRows(buf.transactions, transactionRowArgs)
	if err := insertRows(ctx, tx, "core.transactions", transactionColumns, transactionCasts,
		`ON CONFLICT (height, tx_hash) DO UPDATE SET gas_used = EXCLUDED.gas_used, log_summary = EXCLUDED.log_summary`,
		txRows, limits.txs); err != nil {
		return err
	}

	msgRows := mapRows(buf.messages, messageRowArgs)
	if err := insertRows(ctx, tx, "core.messages", messageColumns, messageCasts,
		"ON CONFLICT (height, tx_hash, msg_index) DO NOTHING", msgRows, limits.msgs); err != nil {
		return err
	}

	eventRows := mapRows(buf.events, eventRowArgs)
	if err := insertRows(ctx, tx, "core.events", eventColumns, nil,
		"ON CONFLICT (tx_hash, msg_index, event_index) DO NOTHING", eventRows, limits.events); err != nil {
		return err
	}

	attrRows := mapRows(buf.attrs, eventAttrRowArgs)
	if err := insertRows(ctx, tx, "core.event_attrs", eventAttrColumns, nil,
		"ON CONFLICT (tx_hash, msg_index, event_index, key) DO NOTHING", attrRows, limits.attrs); err != nil {
		return err
	}

	transferRows := mapRows(buf.transfers, transferRowArgs)
	if err := insertRows(ctx, tx, "core.transfers", transferColumns, nil,
		"ON CONFLICT (height, tx_hash, msg_index, from_addr, to_addr, denom) DO NOTHING", transferRows, limits.events); err != nil {
		return err
	}

	delegationRows := mapRows(buf.delegations, delegationRowArgs)
	if err := insertRows(ctx, tx, "stake.delegation_events", delegationColumns, nil,
		"ON CONFLICT (height, tx_hash, msg_index) DO NOTHING", delegationRows, limits.events); err != nil {
		return err
	}

	distributionRows := mapRows(buf.distributions, distributionRowArgs)
	if err := insertRows(ctx, tx, "stake.distribution_events", distributionColumns, nil,
		"ON CONFLICT (height, tx_hash, msg_index) DO NOTHING", distributionRows, limits.events); err != nil {
		return err
	}

	wasmExecRows := mapRows(buf.wasmExecs, wasmExecutionRowArgs)
	if err := insertRows(ctx, tx, "wasm.executions", wasmExecutionColumns, nil,
		"ON CONFLICT (height, tx_hash, msg_index) DO NOTHING", wasmExecRows, limits.events); err != nil {
		return err
	}

	wasmEventRows := mapRows(buf.wasmEvents, wasmEventRowArgs)
	if err := insertRows(ctx, tx, "wasm.events", wasmEventColumns, nil,
		"ON CONFLICT (height, tx_hash, msg_index, event_index) DO NOTHING", wasmEventRows, limits.events); err != nil {
		return err
	}

	depositRows := mapRows(buf.govDeposits, govDepositRowArgs)
	if err := insertRows(ctx, tx, "gov.deposits", govDepositColumns, nil,
		"ON CONFLICT (height, tx_hash, msg_index, denom) DO NOTHING", depositRows, limits.events); err != nil {
		return err
	}

	voteRows := mapRows(buf.govVotes, govVoteRowArgs)
	if err := insertRows(ctx, tx, "gov.votes", govVoteColumns, nil,
		"ON CONFLICT (height, tx_hash, msg_index) DO NOTHING", voteRows, limits.events); err != nil {
		return err
	}

	proposalRows := mapRows(buf.govProposals, govProposalRowArgs)
	if err := insertRows(ctx, tx, "gov.proposals", govProposalColumns, nil,
		`ON CONFLICT (proposal_id) DO UPDATE SET
			height = COALESCE(EXCLUDED.height, gov.proposals.height),
			tx_hash = COALESCE(EXCLUDED.tx_hash, gov.proposals.tx_hash),
			time = COALESCE(EXCLUDED.time, gov.proposals.time)`,
		proposalRows, limits.events); err != nil {
		return err
	}

	return nil
}

func mapRows[T any](rows []T, fn func(T) []any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out
}
