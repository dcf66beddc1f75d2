package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sqlpad/internal/bridge"
)

// SplitBatches splits a script on lines holding only the GO batch separator
// (an optional repeat count is accepted and ignored). Comparison is
// case-insensitive. Empty batches are dropped.
func SplitBatches(script string) []string {
	var batches []string
	var current []string

	flush := func() {
		batch := strings.TrimSpace(strings.Join(current, "\n"))
		if batch != "" {
			batches = append(batches, batch)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(script, "\n") {
		if isBatchSeparator(line) {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return batches
}

func isBatchSeparator(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "go") {
		return false
	}
	if len(fields) == 1 {
		return true
	}
	// "GO 5" repeats a batch; treat it as a plain separator
	return len(fields) == 2 && strings.IndexFunc(fields[1], func(r rune) bool {
		return r < '0' || r > '9'
	}) == -1
}

// isRowQuery reports whether a batch is expected to produce a rowset.
func isRowQuery(batch string) bool {
	q := strings.ToUpper(strings.TrimSpace(batch))
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN", "PRAGMA", "EXEC", "SP_"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// RunBatch executes one batch. Row-returning batches yield the rows with a
// header row of column names first and affected = -1 (the "not applicable"
// sentinel); other batches yield nil rows and the affected row count.
func RunBatch(ctx context.Context, db *sql.DB, batch string) ([][]any, int64, error) {
	if !isRowQuery(batch) {
		res, err := db.ExecContext(ctx, batch)
		if err != nil {
			return nil, -1, fmt.Errorf("exec: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = -1
		}
		return nil, affected, nil
	}

	rows, err := db.QueryContext(ctx, batch)
	if err != nil {
		return nil, -1, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, -1, fmt.Errorf("columns: %w", err)
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	out := [][]any{header}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, -1, fmt.Errorf("scan: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	return out, -1, rows.Err()
}

// ParseScript checks a script for syntax errors without executing it.
// SQL Server does the check server-side via SET PARSEONLY; other drivers
// prepare each batch and discard the statement.
func ParseScript(ctx context.Context, db *sql.DB, driver Driver, script string) []bridge.ParseError {
	if driver == DriverSQLServer {
		return parseSQLServer(ctx, db, script)
	}

	var errs []bridge.ParseError
	for _, batch := range SplitBatches(script) {
		stmt, err := db.PrepareContext(ctx, batch)
		if err != nil {
			errs = append(errs, bridge.ParseError{Message: err.Error()})
			continue
		}
		stmt.Close()
	}
	return errs
}

func parseSQLServer(ctx context.Context, db *sql.DB, script string) []bridge.ParseError {
	conn, err := db.Conn(ctx)
	if err != nil {
		return []bridge.ParseError{{Message: err.Error()}}
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET PARSEONLY ON"); err != nil {
		return []bridge.ParseError{{Message: err.Error()}}
	}
	defer conn.ExecContext(ctx, "SET PARSEONLY OFF")

	var errs []bridge.ParseError
	for _, batch := range SplitBatches(script) {
		if _, err := conn.ExecContext(ctx, batch); err != nil {
			errs = append(errs, bridge.ParseError{Message: err.Error()})
		}
	}
	return errs
}
