package export_test

import (
	"errors"
	"strings"
	"testing"

	"sqlpad/internal/domain"
	"sqlpad/internal/export"
)

func TestBuildRows_SkipsRepeatedHeaders(t *testing.T) {
	dr := &domain.DBResult{
		Batches: []domain.BatchResult{
			{Rows: [][]any{{"id", "name"}, {1, "a"}}},
			{Rows: [][]any{{"id", "name"}, {2, "b"}}},
		},
	}

	rows := export.BuildRows(dr)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("expected header first, got %v", rows[0])
	}
	if rows[1][0] != "1" || rows[2][0] != "2" {
		t.Errorf("unexpected data rows: %v", rows[1:])
	}
}

func TestBuildRows_DifferentShapesKeepBothHeaders(t *testing.T) {
	dr := &domain.DBResult{
		Batches: []domain.BatchResult{
			{Rows: [][]any{{"id"}, {1}}},
			{Rows: [][]any{{"id", "name"}, {2, "b"}}},
		},
	}

	rows := export.BuildRows(dr)
	if len(rows) != 4 {
		t.Fatalf("expected both headers kept, got %d rows", len(rows))
	}
}

func TestBuildRows_SkipsErroredAndEmptyBatches(t *testing.T) {
	dr := &domain.DBResult{
		Batches: []domain.BatchResult{
			{Error: "syntax error", Rows: [][]any{{"id"}, {1}}},
			{AffectedRows: 3},
			{Rows: [][]any{{"id"}, {2}}},
		},
	}

	rows := export.BuildRows(dr)
	if len(rows) != 2 {
		t.Fatalf("expected only the clean rowset, got %v", rows)
	}
}

func TestBuildCombinedRows_PrefixesDatabase(t *testing.T) {
	conn := &domain.Connection{
		Dbs: []*domain.Database{
			{ID: "d1", Name: "tenant1"},
			{ID: "d2", Name: "tenant2"},
		},
	}
	inst := &domain.Instance{
		Results: map[string]*domain.DBResult{
			"d1": {Batches: []domain.BatchResult{{Rows: [][]any{{"id"}, {1}}}}},
			"d2": {Batches: []domain.BatchResult{{Rows: [][]any{{"id"}, {2}}}}},
		},
	}

	rows := export.BuildCombinedRows(inst, conn)
	if len(rows) != 3 {
		t.Fatalf("expected 1 header + 2 data rows, got %d", len(rows))
	}
	if rows[0][0] != "Database" || rows[0][1] != "id" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "tenant1" || rows[2][0] != "tenant2" {
		t.Errorf("expected database name prefix, got %v %v", rows[1], rows[2])
	}
}

func TestWrite_CRLFAndNull(t *testing.T) {
	var sb strings.Builder
	rows := [][]string{{"id", "name"}, {"1", "NULL"}}
	if err := export.Write(&sb, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "\r\n") {
		t.Error("expected CRLF line endings")
	}
	if !strings.HasPrefix(out, "id,name\r\n") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestWrite_EmptyIsError(t *testing.T) {
	var sb strings.Builder
	err := export.Write(&sb, nil)
	if !errors.Is(err, export.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}
