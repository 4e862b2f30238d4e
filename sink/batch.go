package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// maxParamsPerStatement is a conservative ceiling below Postgres' own
// hard cap of 65535 parameters per statement.
const maxParamsPerStatement = 30_000

// insertRows builds and executes one or more multi-row INSERT
// statements for table, splitting the logical batch into sub-batches
// capped by both maxRowsPerStatement and maxParamsPerStatement, per
// batch-insertion pattern. rows is a slice of
// already-prepared positional argument slices, one per row, each the
// same length as columns. casts holds an explicit Postgres type cast
// per column ("::jsonb", "" for none) since JSONB columns need one.
func insertRows(ctx context.Context, tx pgx.Tx, table string, columns []string, casts []string, conflictSQL string, rows [][]any, maxRowsPerStatement int) error {
	if len(rows) == 0 {
		return nil
	}
	paramsPerRow := len(columns)
	rowsPerBatch := maxRowsPerStatement
	if paramsPerRow > 0 {
		if capped := maxParamsPerStatement / paramsPerRow; capped < rowsPerBatch {
			rowsPerBatch = capped
		}
	}
	if rowsPerBatch <= 0 {
		rowsPerBatch = 1
	}

	for start := 0; start < len(rows); start += rowsPerBatch {
		end := start + rowsPerBatch
		if end > len(rows) {
			end = len(rows)
		}
		if err := execInsertBatch(ctx, tx, table, columns, casts, conflictSQL, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func execInsertBatch(ctx context.Context, tx pgx.Tx, table string, columns, casts []string, conflictSQL string, rows [][]any) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	placeholder := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", placeholder)
			if j < len(casts) && casts[j] != "" {
				sb.WriteString(casts[j])
			}
			placeholder++
		}
		sb.WriteByte(')')
		args = append(args, row...)
	}
	sb.WriteString(" ")
	sb.WriteString(conflictSQL)

	if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("sink: insert into %s: %w", table, err)
	}
	return nil
}
