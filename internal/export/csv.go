// Package export renders execution results as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"sqlpad/internal/domain"
)

// ErrNoRows is returned when an export has nothing to write.
var ErrNoRows = errors.New("export: no result rows")

// BuildRows flattens one database's batch results into CSV rows. The first
// successful batch contributes its header row; later batches contribute data
// rows only when their header matches in width (mismatched result shapes get
// their own header again). Errored batches and batches without rowsets are
// skipped.
func BuildRows(dr *domain.DBResult) [][]string {
	if dr == nil {
		return nil
	}

	var out [][]string
	headerWidth := -1
	for _, batch := range dr.Batches {
		if batch.Error != "" || len(batch.Rows) == 0 {
			continue
		}
		start := 0
		if len(batch.Rows[0]) == headerWidth {
			start = 1 // same shape, skip the repeated header
		} else {
			headerWidth = len(batch.Rows[0])
		}
		for _, row := range batch.Rows[start:] {
			out = append(out, stringify(row))
		}
	}
	return out
}

// BuildCombinedRows flattens the results of every database into one sheet,
// prefixing each row with the database name so interleaved origins stay
// distinguishable.
func BuildCombinedRows(inst *domain.Instance, conn *domain.Connection) [][]string {
	if inst == nil || conn == nil {
		return nil
	}

	var out [][]string
	wroteHeader := false
	for _, db := range conn.Dbs {
		dr := inst.Results[db.ID]
		if dr == nil {
			continue
		}
		for i, row := range BuildRows(dr) {
			if i == 0 {
				// every database repeats the header; keep only the first
				if !wroteHeader {
					out = append(out, append([]string{"Database"}, row...))
					wroteHeader = true
				}
				continue
			}
			out = append(out, append([]string{db.Name}, row...))
		}
	}
	return out
}

// Write emits the rows as CRLF-terminated CSV.
func Write(w io.Writer, rows [][]string) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func stringify(row []any) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		if cell == nil {
			out[i] = "NULL"
			continue
		}
		out[i] = fmt.Sprint(cell)
	}
	return out
}
