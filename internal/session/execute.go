package session

import (
	"log"
	"path/filepath"
	"strings"

	"sqlpad/internal/bridge"
	"sqlpad/internal/domain"
)

type pendingExec struct {
	sql string
	dbs []string
}

// ExecutePayload accompanies the sql:executing event.
type ExecutePayload struct {
	Instance   *domain.Instance   `json:"instance"`
	Connection *domain.Connection `json:"connection"`
	Databases  []string           `json:"databases"`
	SQL        string             `json:"sql"`
}

// ConfirmPayload asks the frontend to confirm an execution.
type ConfirmPayload struct {
	InstanceID     string `json:"instanceId"`
	ConnectionName string `json:"connectionName"`
	Databases      int    `json:"databases"`
}

// DBEventPayload accompanies the per-database progress events. Instance is
// nil when the originating instance no longer exists; the raw id is always
// present.
type DBEventPayload struct {
	Instance   *domain.Instance `json:"instance"`
	InstanceID string           `json:"instanceId"`
	DB         string           `json:"db,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ExecuteSQLDirect submits a script for execution against the given
// databases. Always returns true; results stream back via bridge events.
func (s *Session) ExecuteSQLDirect(raw string, dbs []string, sqlText, instanceID string, opts bridge.ExecOptions) bool {
	s.bus.Emit(bridge.ExecuteSQL, bridge.ExecRequest{
		Raw:        raw,
		Dbs:        dbs,
		SQL:        sqlText,
		InstanceID: instanceID,
		Opts:       opts,
	})
	return true
}

// ExecuteSQL executes the active instance's sql (editor selection, falling
// back to full content) against the checked databases of the active
// connection. Returns true when the execution was submitted synchronously;
// false when there was nothing to submit or a confirmation prompt is
// pending (resumed via ConfirmExecute).
func (s *Session) ExecuteSQL() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.instance == nil || s.connection == nil {
		return false
	}

	sqlText := instanceSQL(s.instance)
	if sqlText == "" {
		return false
	}

	dbs := s.connection.CheckedDBNames()
	if len(dbs) == 0 {
		return false
	}

	if s.connection.ConfirmSQL {
		s.pendingConfirm[s.instance.ID] = &pendingExec{sql: sqlText, dbs: dbs}
		s.emit(EvtSQLConfirm, ConfirmPayload{
			InstanceID:     s.instance.ID,
			ConnectionName: s.connection.Name,
			Databases:      len(dbs),
		})
		return false
	}

	s.beginExecution(s.instance, s.connection, dbs, sqlText)
	return true
}

// ConfirmExecute resumes (or discards) an execution held for confirmation.
func (s *Session) ConfirmExecute(instanceID string, confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pendingConfirm[instanceID]
	delete(s.pendingConfirm, instanceID)
	if p == nil || !confirmed {
		return
	}

	inst := s.findInstanceByID(instanceID)
	if inst == nil || s.connection == nil {
		return
	}
	s.beginExecution(inst, s.connection, p.dbs, p.sql)
}

func (s *Session) beginExecution(inst *domain.Instance, conn *domain.Connection, dbs []string, sqlText string) {
	s.emit(EvtSQLExecuting, ExecutePayload{
		Instance:   inst,
		Connection: conn,
		Databases:  dbs,
		SQL:        sqlText,
	})

	inst.Pending = 1
	inst.Results = nil
	inst.TotalRows = nil
	inst.AffectedRows = nil
	inst.Time = 0

	s.bus.Emit(bridge.ExecuteSQL, bridge.ExecRequest{
		Raw:        conn.Raw,
		Dbs:        dbs,
		SQL:        sqlText,
		InstanceID: inst.ID,
		Opts:       bridge.ExecOptions{Timeout: inst.Timeout},
	})
}

// ParseSQLDirect submits a script for a syntax-only check.
func (s *Session) ParseSQLDirect(raw, sqlText, instanceID string) bool {
	s.bus.Emit(bridge.ParseSQL, bridge.ParseRequest{
		Raw:        raw,
		SQL:        sqlText,
		InstanceID: instanceID,
	})
	return true
}

// ParseSQL submits the active instance's sql for a syntax-only check.
func (s *Session) ParseSQL() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.instance == nil || s.connection == nil {
		return false
	}

	sqlText := instanceSQL(s.instance)
	if sqlText == "" {
		return false
	}

	s.emit(EvtSQLParsing, ExecutePayload{
		Instance:   s.instance,
		Connection: s.connection,
		SQL:        sqlText,
	})

	s.instance.TotalRows = nil
	s.instance.Pending = 1

	s.bus.Emit(bridge.ParseSQL, bridge.ParseRequest{
		Raw:        s.connection.Raw,
		SQL:        sqlText,
		InstanceID: s.instance.ID,
	})
	return true
}

// instanceSQL reads the sql to run: the editor selection, else the full
// content, trimmed. Falls back to the instance's code when no editor is
// attached.
func instanceSQL(inst *domain.Instance) string {
	if inst.Editor != nil {
		sqlText := inst.Editor.GetSelection()
		if sqlText == "" {
			sqlText = inst.Editor.GetValue()
		}
		return strings.TrimSpace(sqlText)
	}
	return strings.TrimSpace(inst.Code)
}

// ── bridge reply handlers ──────────────────────────────────
//
// Per-database events arrive uncorrelated and may interleave across
// concurrently-executing instances; every handler re-resolves state from the
// ids in the payload and treats a missing instance/connection/database as a
// no-op, never a fault.

func (s *Session) onExecDBBegin(data any) {
	p, ok := data.(bridge.DBBegin)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(p.InstanceID)
	if inst != nil {
		inst.Pending++
	}
	s.emit(EvtSQLDBBegin, DBEventPayload{Instance: inst, InstanceID: p.InstanceID, DB: p.DB, Error: errMsg(p.Err)})
}

func (s *Session) onExecDBBatchResult(data any) {
	p, ok := data.(bridge.DBBatchResult)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(p.InstanceID)
	if inst != nil {
		if db := s.resolveResultDB(inst, p.DB); db != nil {
			s.recordBatch(inst, db, p)
		}
	}
	s.emit(EvtSQLDBBatch, DBEventPayload{Instance: inst, InstanceID: p.InstanceID, DB: p.DB, Error: errMsg(p.Err)})
}

// resolveResultDB maps a database name from an event onto the descriptor the
// instance's current connection knows about.
func (s *Session) resolveResultDB(inst *domain.Instance, dbName string) *domain.Database {
	if inst.Connection == nil {
		return nil
	}
	conn := s.findConnByID(inst.Connection.ID)
	if conn == nil {
		return nil
	}
	return conn.FindDBByName(dbName)
}

func (s *Session) recordBatch(inst *domain.Instance, db *domain.Database, p bridge.DBBatchResult) {
	if inst.Results == nil {
		inst.Results = make(map[string]*domain.DBResult)
	}
	dr := inst.Results[db.ID]
	if dr == nil {
		dr = &domain.DBResult{}
		inst.Results[db.ID] = dr
	}

	dr.Batches = append(dr.Batches, domain.BatchResult{
		Error:        errMsg(p.Err),
		Rows:         p.Rows,
		AffectedRows: p.AffectedRows,
		Time:         p.Time,
	})

	dr.Time += p.Time
	if inst.Time < dr.Time {
		// instance time is the slowest database, not the sum
		inst.Time = dr.Time
	}

	if p.Err == nil && len(p.Rows) > 0 {
		// first row is the header
		n := int64(len(p.Rows) - 1)
		dr.TotalRows = addCount(dr.TotalRows, n)
		inst.TotalRows = addCount(inst.TotalRows, n)
	}
	if p.AffectedRows != 0 && p.AffectedRows != -1 {
		dr.AffectedRows = addCount(dr.AffectedRows, p.AffectedRows)
		inst.AffectedRows = addCount(inst.AffectedRows, p.AffectedRows)
	}
}

func addCount(total *int64, n int64) *int64 {
	if total == nil {
		total = new(int64)
	}
	*total += n
	return total
}

func (s *Session) onExecDBComplete(data any) {
	p, ok := data.(bridge.DBComplete)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(p.InstanceID)
	if inst != nil && inst.Pending > 0 {
		inst.Pending--
	}
	s.emit(EvtSQLDBComplete, DBEventPayload{Instance: inst, InstanceID: p.InstanceID, DB: p.DB, Error: errMsg(p.Err)})
}

func (s *Session) onExecComplete(data any) {
	p, ok := data.(bridge.ExecComplete)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(p.InstanceID)
	if inst != nil {
		inst.Pending = 0
	}

	if p.Err != nil {
		log.Printf("[session] execute sql: %v", p.Err)
		s.alert("Error Executing SQL", p.Err.Error())
	}

	s.emit(EvtSQLExecuted, DBEventPayload{Instance: inst, InstanceID: p.InstanceID, Error: errMsg(p.Err)})
}

// ParsedPayload accompanies the sql:parsed event.
type ParsedPayload struct {
	Instance   *domain.Instance    `json:"instance"`
	InstanceID string              `json:"instanceId"`
	Error      string              `json:"error,omitempty"`
	Errors     []bridge.ParseError `json:"errors,omitempty"`
}

func (s *Session) onDownloadCompleted(data any) {
	p, ok := data.(bridge.DownloadDone)
	if !ok || !p.Success {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(p.InstanceID)
	if inst == nil {
		return
	}

	inst.Path = p.Path
	inst.Name = filepath.Base(p.Path)
	inst.Original = ContentHash(inst.Code)
	inst.Dirty = false

	s.saveState(SliceInstances)
	s.emit(EvtInstanceFileSaved, inst)
}

func (s *Session) onParseComplete(data any) {
	p, ok := data.(bridge.ParseComplete)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(p.InstanceID)
	if inst != nil {
		inst.Pending = 0
	}

	s.emit(EvtSQLParsed, ParsedPayload{
		Instance:   inst,
		InstanceID: p.InstanceID,
		Error:      errMsg(p.Err),
		Errors:     p.Errors,
	})
}
