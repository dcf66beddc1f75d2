package session_test

import (
	"errors"
	"testing"

	"sqlpad/internal/bridge"
	"sqlpad/internal/domain"
	"sqlpad/internal/session"
)

// ─────────────────────────────────────────────────────────────
// Execution coordinator
// ─────────────────────────────────────────────────────────────

// execFixture builds a session with one connection (two checked databases)
// and one active instance referencing it.
func execFixture(t *testing.T) (*session.Session, *session.MockEmitter, *bridge.Bus, *domain.Instance) {
	t.Helper()
	s, em, bus := newTestSession(t)

	s.UpsertConnection(&domain.Connection{
		ID:   "c1",
		Name: "prod",
		Raw:  "Server=x",
		Dbs: []*domain.Database{
			{ID: "d1", Name: "tenant1", Checked: true},
			{ID: "d2", Name: "tenant2", Checked: true},
		},
	})
	s.SwitchConnection(session.ConnByID("c1"))
	inst := s.CreateInstance(&domain.Instance{Code: "select 1"})
	s.SwitchInstance(session.InstanceByValue(inst))
	return s, em, bus, inst
}

func TestExecuteSQL_SubmitsAndResetsState(t *testing.T) {
	s, em, bus, inst := execFixture(t)

	inst.Results = map[string]*domain.DBResult{"stale": {}}
	inst.Time = 99

	if !s.ExecuteSQL() {
		t.Fatal("expected submission")
	}
	bus.Flush()

	if inst.Pending != 1 {
		t.Errorf("expected pending 1 at submit, got %d", inst.Pending)
	}
	if inst.Results != nil || inst.TotalRows != nil || inst.AffectedRows != nil || inst.Time != 0 {
		t.Error("expected result state cleared at submit")
	}
	if em.Count(session.EvtSQLExecuting) != 1 {
		t.Errorf("expected one executing event, got %d", em.Count(session.EvtSQLExecuting))
	}
}

func TestExecuteSQL_NothingToRun(t *testing.T) {
	s, _, _, inst := execFixture(t)

	s.UpdateEditor(inst.ID, "   \n\t", "")
	if s.ExecuteSQL() {
		t.Error("expected no submission for whitespace-only sql")
	}
}

func TestExecuteSQL_NoCheckedDatabases(t *testing.T) {
	s, _, _, _ := execFixture(t)

	s.SetDatabaseChecked("d1", false)
	s.SetDatabaseChecked("d2", false)
	if s.ExecuteSQL() {
		t.Error("expected no submission without checked databases")
	}
}

func TestExecuteSQL_SelectionWinsOverValue(t *testing.T) {
	s, _, bus, inst := execFixture(t)

	s.UpdateEditor(inst.ID, "select 1;\nselect 2;", "select 2;")

	var got bridge.ExecRequest
	bus.On(bridge.ExecuteSQL, func(data any) {
		if req, ok := data.(bridge.ExecRequest); ok {
			got = req
		}
	})

	s.ExecuteSQL()
	bus.Flush()

	if got.SQL != "select 2;" {
		t.Errorf("expected the selection to run, got %q", got.SQL)
	}
	if got.InstanceID != inst.ID || got.Raw != "Server=x" {
		t.Errorf("unexpected request routing: %+v", got)
	}
}

func TestExecuteSQL_ConfirmFlow(t *testing.T) {
	s, em, bus, inst := execFixture(t)
	s.FindConnection("c1").ConfirmSQL = true

	if s.ExecuteSQL() {
		t.Fatal("expected no synchronous submission while confirmation pending")
	}
	if em.Count(session.EvtSQLConfirm) != 1 {
		t.Fatalf("expected confirm prompt, got %d", em.Count(session.EvtSQLConfirm))
	}
	if inst.Pending != 0 {
		t.Error("expected no pending work before confirmation")
	}

	s.ConfirmExecute(inst.ID, true)
	bus.Flush()

	if inst.Pending != 1 {
		t.Errorf("expected execution started after confirmation, pending=%d", inst.Pending)
	}
	if em.Count(session.EvtSQLExecuting) != 1 {
		t.Error("expected executing event after confirmation")
	}
}

func TestConfirmExecute_Declined(t *testing.T) {
	s, em, _, inst := execFixture(t)
	s.FindConnection("c1").ConfirmSQL = true

	s.ExecuteSQL()
	s.ConfirmExecute(inst.ID, false)

	if inst.Pending != 0 {
		t.Error("expected nothing to run after decline")
	}
	if em.Count(session.EvtSQLExecuting) != 0 {
		t.Error("expected no executing event after decline")
	}

	// a later confirm for the same instance must not resurrect the request
	s.ConfirmExecute(inst.ID, true)
	if inst.Pending != 0 {
		t.Error("expected declined request discarded")
	}
}

// ─────────────────────────────────────────────────────────────
// Progress event bookkeeping
// ─────────────────────────────────────────────────────────────

func TestProgress_PendingCounter(t *testing.T) {
	s, _, bus, inst := execFixture(t)
	s.ExecuteSQL()
	bus.Flush()

	bus.Emit(bridge.SQLExeDBBegin, bridge.DBBegin{InstanceID: inst.ID, DB: "tenant1"})
	bus.Emit(bridge.SQLExeDBBegin, bridge.DBBegin{InstanceID: inst.ID, DB: "tenant2"})
	bus.Flush()
	if inst.Pending != 3 {
		t.Errorf("expected pending 3 after two begins, got %d", inst.Pending)
	}

	bus.Emit(bridge.SQLExeDBComplete, bridge.DBComplete{InstanceID: inst.ID, DB: "tenant1"})
	bus.Flush()
	if inst.Pending != 2 {
		t.Errorf("expected pending 2, got %d", inst.Pending)
	}
}

func TestProgress_PendingNeverNegative(t *testing.T) {
	s, _, bus, inst := execFixture(t)
	_ = s

	for i := 0; i < 3; i++ {
		bus.Emit(bridge.SQLExeDBComplete, bridge.DBComplete{InstanceID: inst.ID, DB: "tenant1"})
	}
	bus.Flush()

	if inst.Pending != 0 {
		t.Errorf("expected pending clamped at 0, got %d", inst.Pending)
	}
}

func TestProgress_CompleteForcesIdle(t *testing.T) {
	s, em, bus, inst := execFixture(t)
	s.ExecuteSQL()
	bus.Emit(bridge.SQLExeDBBegin, bridge.DBBegin{InstanceID: inst.ID, DB: "tenant1"})
	bus.Flush()
	if inst.Pending != 2 {
		t.Fatalf("expected pending 2, got %d", inst.Pending)
	}

	bus.Emit(bridge.SQLExeComplete, bridge.ExecComplete{InstanceID: inst.ID})
	bus.Flush()

	if inst.Pending != 0 {
		t.Errorf("expected pending forced to 0, got %d", inst.Pending)
	}
	if em.Count(session.EvtSQLExecuted) != 1 {
		t.Error("expected executed event")
	}
	if em.Count(session.EvtAlert) != 0 {
		t.Error("expected no alert without an error")
	}
}

func TestProgress_CompleteWithErrorAlerts(t *testing.T) {
	s, em, bus, inst := execFixture(t)
	s.ExecuteSQL()
	bus.Flush()

	bus.Emit(bridge.SQLExeComplete, bridge.ExecComplete{
		InstanceID: inst.ID,
		Err:        errors.New("connection reset"),
	})
	bus.Flush()

	if em.Count(session.EvtAlert) != 1 {
		t.Errorf("expected one alert, got %d", em.Count(session.EvtAlert))
	}
	if inst.Pending != 0 {
		t.Error("expected pending reset even on error")
	}
}

func TestProgress_BatchAggregation(t *testing.T) {
	s, _, bus, inst := execFixture(t)
	s.ExecuteSQL()
	bus.Flush()

	header := []any{"id", "name"}

	// tenant1: one rowset of 2 data rows, then a 3-row update
	bus.Emit(bridge.SQLExeDBBatchResult, bridge.DBBatchResult{
		InstanceID: inst.ID, DB: "tenant1", BatchNumber: 0,
		Rows:         [][]any{header, {1, "a"}, {2, "b"}},
		AffectedRows: -1,
		Time:         120,
	})
	bus.Emit(bridge.SQLExeDBBatchResult, bridge.DBBatchResult{
		InstanceID: inst.ID, DB: "tenant1", BatchNumber: 1,
		AffectedRows: 3,
		Time:         40,
	})
	// tenant2: slower single rowset with 1 data row
	bus.Emit(bridge.SQLExeDBBatchResult, bridge.DBBatchResult{
		InstanceID: inst.ID, DB: "tenant2", BatchNumber: 0,
		Rows:         [][]any{header, {3, "c"}},
		AffectedRows: -1,
		Time:         300,
	})
	bus.Flush()

	conn := s.FindConnection("c1")
	r1 := inst.Results[conn.FindDBByName("tenant1").ID]
	r2 := inst.Results[conn.FindDBByName("tenant2").ID]
	if r1 == nil || r2 == nil {
		t.Fatal("expected results keyed by database id")
	}

	if len(r1.Batches) != 2 {
		t.Fatalf("expected 2 batches for tenant1, got %d", len(r1.Batches))
	}
	if r1.Time != 160 {
		t.Errorf("expected tenant1 time summed to 160, got %d", r1.Time)
	}
	if r1.TotalRows == nil || *r1.TotalRows != 2 {
		t.Errorf("expected tenant1 totalRows 2 (header excluded), got %v", r1.TotalRows)
	}
	if r1.AffectedRows == nil || *r1.AffectedRows != 3 {
		t.Errorf("expected tenant1 affectedRows 3, got %v", r1.AffectedRows)
	}
	if r2.AffectedRows != nil {
		t.Error("expected tenant2 affectedRows nil: -1 is a rowset sentinel, not a count")
	}

	if inst.Time != 300 {
		t.Errorf("expected instance time 300 (slowest database), got %d", inst.Time)
	}
	if inst.TotalRows == nil || *inst.TotalRows != 3 {
		t.Errorf("expected instance totalRows 3, got %v", inst.TotalRows)
	}
	if inst.AffectedRows == nil || *inst.AffectedRows != 3 {
		t.Errorf("expected instance affectedRows 3, got %v", inst.AffectedRows)
	}
}

func TestProgress_ErroredBatchContributesNoRows(t *testing.T) {
	s, _, bus, inst := execFixture(t)
	s.ExecuteSQL()
	bus.Flush()

	bus.Emit(bridge.SQLExeDBBatchResult, bridge.DBBatchResult{
		InstanceID: inst.ID, DB: "tenant1",
		Err:          errors.New("syntax error"),
		AffectedRows: -1,
		Time:         10,
	})
	bus.Flush()

	conn := s.FindConnection("c1")
	dr := inst.Results[conn.FindDBByName("tenant1").ID]
	if dr == nil || len(dr.Batches) != 1 {
		t.Fatal("expected the errored batch recorded")
	}
	if dr.Batches[0].Error == "" {
		t.Error("expected batch error captured")
	}
	if inst.TotalRows != nil {
		t.Error("expected no row contribution from an errored batch")
	}
}

func TestProgress_UnknownInstanceIgnored(t *testing.T) {
	_, em, bus, _ := execFixture(t)

	bus.Emit(bridge.SQLExeDBBatchResult, bridge.DBBatchResult{InstanceID: "ghost", DB: "tenant1"})
	bus.Emit(bridge.SQLExeDBComplete, bridge.DBComplete{InstanceID: "ghost"})
	bus.Flush()

	// still forwarded to the frontend, with a nil instance
	if em.Count(session.EvtSQLDBBatch) != 1 {
		t.Error("expected db-batch event forwarded")
	}
}

// ─────────────────────────────────────────────────────────────
// Parse
// ─────────────────────────────────────────────────────────────

func TestParseSQL_RoundTrip(t *testing.T) {
	s, em, bus, inst := execFixture(t)

	if !s.ParseSQL() {
		t.Fatal("expected parse submission")
	}
	if inst.Pending != 1 {
		t.Errorf("expected pending 1 during parse, got %d", inst.Pending)
	}

	bus.Emit(bridge.SQLParseComplete, bridge.ParseComplete{
		InstanceID: inst.ID,
		Errors:     []bridge.ParseError{{Line: 2, Message: "Incorrect syntax near 'form'"}},
	})
	bus.Flush()

	if inst.Pending != 0 {
		t.Errorf("expected pending reset after parse, got %d", inst.Pending)
	}
	if em.Count(session.EvtSQLParsed) != 1 {
		t.Error("expected parsed event")
	}
}
