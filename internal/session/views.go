package session

import (
	"fmt"

	"sqlpad/internal/domain"
	"sqlpad/internal/export"
)

// Copied views for callers on other goroutines. Pointers handed out by the
// registry accessors are mutated under the session mutex by bridge reply
// handlers, so the app and MCP layers must not dereference them off-turn;
// they take one of these point-in-time copies instead.

// InstanceFile is a copy of an instance's file-facing fields.
type InstanceFile struct {
	Name string
	Path string
	Code string
}

// InstanceFileState returns a copy of the named instance's file-facing
// fields, or ok=false when no such instance exists.
func (s *Session) InstanceFileState(id string) (InstanceFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst := s.findInstanceByID(id)
	if inst == nil {
		return InstanceFile{}, false
	}
	return InstanceFile{Name: inst.Name, Path: inst.Path, Code: inst.Code}, true
}

// ConnInfo is a copy of a connection's identifying fields. Raw is included
// for callers that dial the server themselves; the password never appears
// separately.
type ConnInfo struct {
	ID       string
	Name     string
	Server   string
	Username string
	Raw      string
}

// ConnectionInfo returns a copy of the named connection's identifying
// fields, or ok=false when no such connection exists.
func (s *Session) ConnectionInfo(id string) (ConnInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findConnByID(id)
	if c == nil {
		return ConnInfo{}, false
	}
	return connInfo(c), true
}

// ConnectionInfos returns copies of every registered connection's
// identifying fields, in display order.
func (s *Session) ConnectionInfos() []ConnInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConnInfo, len(s.connections))
	for i, c := range s.connections {
		out[i] = connInfo(c)
	}
	return out
}

// ExportRows builds CSV rows for the active instance's results, for one
// database or for every database when dbID is empty. The returned rows are
// freshly built strings with no ties to session state.
func (s *Session) ExportRows(dbID string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instance == nil || s.connection == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	var rows [][]string
	if dbID == "" {
		rows = export.BuildCombinedRows(s.instance, s.connection)
	} else {
		rows = export.BuildRows(s.instance.Results[dbID])
	}
	if len(rows) == 0 {
		return nil, export.ErrNoRows
	}
	return rows, nil
}

func connInfo(c *domain.Connection) ConnInfo {
	return ConnInfo{ID: c.ID, Name: c.Name, Server: c.Server, Username: c.Username, Raw: c.Raw}
}
