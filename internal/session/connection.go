package session

import (
	"log"

	"github.com/google/uuid"

	"sqlpad/internal/bridge"
	"sqlpad/internal/domain"
)

// ConnSwitchPayload accompanies the connection switching/switched events.
type ConnSwitchPayload struct {
	Connection *domain.Connection `json:"connection"`
	Previous   *domain.Connection `json:"previous"`
}

// UpsertConnection adds a new connection or updates an existing one, matched
// by id. Updates copy only the mutable fields so the discovered database
// list survives; either path re-sorts the registry by name and persists.
func (s *Session) UpsertConnection(conn *domain.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn.ID == "" {
		conn.ID = uuid.New().String()
	}

	existing := s.findConnByID(conn.ID)
	if existing != nil {
		s.emit(EvtConnUpdating, existing)
		existing.Name = conn.Name
		existing.Server = conn.Server
		existing.Username = conn.Username
		existing.Password = conn.Password
		existing.Raw = conn.Raw
	} else {
		s.emit(EvtConnAdding, conn)
		s.connections = append(s.connections, conn)
	}

	domain.SortConnections(s.connections)
	s.saveState(SliceConnections)

	if existing != nil {
		s.emit(EvtConnUpdated, existing)
	} else {
		s.emit(EvtConnAdded, conn)
	}
}

// RemoveConnection removes a connection from the registry. Every instance
// referencing it loses the reference and its snapshot; the global active
// connection is cleared if it was the one removed. Unknown refs are a no-op.
func (s *Session) RemoveConnection(ref ConnRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn := s.resolveConn(ref)
	if conn == nil {
		log.Printf("[session] remove connection: not found")
		return
	}

	s.emit(EvtConnRemoving, conn)

	for _, inst := range s.instances {
		if inst.Connection != nil && inst.Connection.ID == conn.ID {
			inst.Connection = nil
		}
		inst.RemoveSnapshot(conn.ID)
	}

	for idx, c := range s.connections {
		if c == conn {
			s.connections = append(s.connections[:idx], s.connections[idx+1:]...)
			break
		}
	}

	if s.connection == conn {
		s.connection = nil
	}

	s.saveState(SliceConnections)
	s.emit(EvtConnRemoved, conn)
}

// SwitchConnection makes a connection the active one (a zero ref means "no
// connection"). If the active instance has a snapshot for the target, the
// target's checked flags and search string are restored from it first, so
// re-selecting a connection reproduces the instance's prior selection state.
func (s *Session) SwitchConnection(ref ConnRef) *domain.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchConnection(s.resolveConn(ref))
}

func (s *Session) switchConnection(conn *domain.Connection) *domain.Connection {
	prev := s.connection

	if conn != nil && s.instance != nil {
		if snap := s.instance.SnapshotFor(conn.ID); snap != nil {
			conn.ApplySnapshot(snap)
		}
	}

	s.emit(EvtConnSwitching, ConnSwitchPayload{Connection: conn, Previous: prev})

	if conn != nil && s.instance != nil {
		s.instance.Connection = conn.Snapshot()
		s.instance.RemoveSnapshot(conn.ID)
		s.instance.Connections = append(s.instance.Connections, s.instance.Connection)
	}

	s.connection = conn

	s.emit(EvtConnSwitched, ConnSwitchPayload{Connection: conn, Previous: prev})
	s.saveState(SliceInstances)

	return conn
}

// RefreshDatabases asks the engine for the active connection's database
// list. No-op unless a connection with a raw connection string is active.
func (s *Session) RefreshDatabases() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connection == nil || s.connection.Raw == "" {
		return
	}

	s.emit(EvtConnDbsFetching, s.connection)
	s.emit(EvtLoading, LoadingPayload{Show: true, Message: "Getting Databases..."})
	s.bus.Emit(bridge.FetchConnectionDbs, bridge.FetchDbsRequest{
		Raw:          s.connection.Raw,
		ConnectionID: s.connection.ID,
	})
}

// SetDatabaseChecked toggles a database's execution selection on the active
// connection and refreshes the active instance's snapshot of it.
func (s *Session) SetDatabaseChecked(dbID string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connection == nil {
		return
	}
	db := s.connection.FindDB(dbID)
	if db == nil {
		return
	}
	db.Checked = checked
	s.syncActiveSnapshot()
}

// SetSearch updates the active connection's database filter string.
func (s *Session) SetSearch(search string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connection == nil {
		return
	}
	s.connection.Search = search
	s.syncActiveSnapshot()
}

// syncActiveSnapshot rebuilds the active instance's snapshot of the active
// connection after a selection/search change and persists instances.
func (s *Session) syncActiveSnapshot() {
	if s.instance == nil || s.connection == nil {
		return
	}
	s.instance.Connection = s.connection.Snapshot()
	s.instance.RemoveSnapshot(s.connection.ID)
	s.instance.Connections = append(s.instance.Connections, s.instance.Connection)
	s.saveState(SliceInstances)
}

// DbsFetchedPayload accompanies the connection:dbs-fetched frontend event.
type DbsFetchedPayload struct {
	Connection   *domain.Connection `json:"connection"`
	ConnectionID string             `json:"connectionId"`
	Error        string             `json:"error,omitempty"`
}

func (s *Session) onDbsFetched(data any) {
	p, ok := data.(bridge.DbsFetched)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conn := s.findConnByID(p.ConnectionID)

	if p.Err != nil {
		log.Printf("[session] fetch databases: %v", p.Err)
		s.alert("Error Listing Databases", p.Err.Error())
	} else if conn != nil {
		dbs := make([]*domain.Database, 0, len(p.Dbs))
		for _, row := range p.Dbs {
			dbs = append(dbs, &domain.Database{
				ID:                 uuid.New().String(),
				Name:               row.Name,
				CreateDate:         row.CreateDate,
				CompatibilityLevel: row.CompatibilityLevel,
				IsReadOnly:         row.IsReadOnly,
				State:              row.State,
				RecoveryModel:      row.RecoveryModel,
				IsEncrypted:        row.IsEncrypted,
				// don't check master by default
				Checked: row.Name != "master",
			})
		}
		domain.SortDatabases(dbs)
		conn.Dbs = dbs

		if s.instance != nil {
			if snap := s.instance.SnapshotFor(conn.ID); snap != nil {
				for _, sel := range snap.Dbs {
					if db := conn.FindDBByName(sel.Name); db != nil {
						db.Checked = sel.Checked
					}
				}
			}
		}

		s.saveState(SliceConnections)
	}

	s.emit(EvtLoading, LoadingPayload{Show: false})
	s.emit(EvtConnDbsFetched, DbsFetchedPayload{
		Connection:   conn,
		ConnectionID: p.ConnectionID,
		Error:        errMsg(p.Err),
	})
}
