package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	heightPartitionSpan = uint64(1_000_000)

	// partitionLockKey is a fixed constant, serializing concurrent
	// CREATE TABLE ... PARTITION OF DDL across writers via
	// pg_advisory_xact_lock.
	partitionLockKey = int64(0x696e6465786572) // "indexer" packed into an int64
)

// rangePartitionedTables are the tables partitioned by height alone
// with a 1,000,000-row span. core.events is handled separately since it
// is additionally hash-partitioned by tx_hash.
var rangePartitionedTables = []string{
	"core.blocks",
	"core.transactions",
	"core.messages",
	"core.event_attrs",
	"core.transfers",
	"stake.delegation_events",
	"stake.distribution_events",
	"wasm.executions",
	"wasm.events",
	"gov.deposits",
	"gov.votes",
	"gov.proposals",
}

// ensureCorePartitions steps through every 1,000,000-aligned boundary
// covered by [minHeight, maxHeight] and issues idempotent
// CREATE TABLE IF NOT EXISTS ... PARTITION OF DDL for each range-
// partitioned table, plus the range+hash partition tree for
// core.events, under a single advisory-lock-guarded transaction.
func ensureCorePartitions(ctx context.Context, tx pgx.Tx, minHeight, maxHeight uint64, eventHashModulus int) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, partitionLockKey); err != nil {
		return fmt.Errorf("sink: acquire partition lock: %w", err)
	}

	for lo := partitionFloor(minHeight); lo <= maxHeight; lo += heightPartitionSpan {
		hi := lo + heightPartitionSpan
		for _, table := range rangePartitionedTables {
			if err := createRangePartition(ctx, tx, table, lo, hi); err != nil {
				return err
			}
		}
		if err := createEventsPartitionTree(ctx, tx, lo, hi, eventHashModulus); err != nil {
			return err
		}
	}
	return nil
}

func partitionFloor(h uint64) uint64 {
	return (h / heightPartitionSpan) * heightPartitionSpan
}

func createRangePartition(ctx context.Context, tx pgx.Tx, table string, lo, hi uint64) error {
	partName := fmt.Sprintf("%s_p%d", sanitizeTableName(table), lo)
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM (%d) TO (%d)`,
		partName, table, lo, hi)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("sink: create partition %s: %w", partName, err)
	}
	return nil
}

// createEventsPartitionTree creates the height-range parent for
// core.events for [lo, hi) (itself partitioned by hash on tx_hash),
// then every hash leaf under it, implementing the two-level scheme.
func createEventsPartitionTree(ctx context.Context, tx pgx.Tx, lo, hi uint64, modulus int) error {
	parentName := fmt.Sprintf("core_events_p%d", lo)
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF core.events FOR VALUES FROM (%d) TO (%d) PARTITION BY HASH (tx_hash)`,
		parentName, lo, hi)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("sink: create events range partition %s: %w", parentName, err)
	}

	for remainder := 0; remainder < modulus; remainder++ {
		leafName := fmt.Sprintf("%s_h%d", parentName, remainder)
		leafDDL := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES WITH (MODULUS %d, REMAINDER %d)`,
			leafName, parentName, modulus, remainder)
		if _, err := tx.Exec(ctx, leafDDL); err != nil {
			return fmt.Errorf("sink: create events hash partition %s: %w", leafName, err)
		}
	}
	return nil
}

func sanitizeTableName(table string) string {
	out := make([]byte, 0, len(table))
	for i := 0; i < len(table); i++ {
		c := table[i]
		if c == '.' {
			out = append(out, '_')
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
