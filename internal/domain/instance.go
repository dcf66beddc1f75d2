package domain

// Editor is the external editor widget holding an instance's SQL text.
// The core only ever reads from it; content mutation is the editor's concern.
type Editor interface {
	GetValue() string
	GetSelection() string
}

// DBSelection records whether a named database was selected for execution.
type DBSelection struct {
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// InstanceConnection is an instance-owned snapshot of a connection's
// selection state: its id, which databases were checked, and the search
// filter. Switching back to a connection restores exactly this.
type InstanceConnection struct {
	ID     string        `json:"id"`
	Dbs    []DBSelection `json:"dbs"`
	Search string        `json:"search"`
}

// BatchResult is one batch's outcome streamed back from the engine.
// Rows includes the header row as its first element; AffectedRows is -1
// for row-returning batches.
type BatchResult struct {
	Error        string  `json:"error,omitempty"`
	Rows         [][]any `json:"result,omitempty"`
	AffectedRows int64   `json:"affectedRows"`
	Time         int64   `json:"time"`
}

// DBResult accumulates the batches and counters for one database of an
// execution. Time is the sum of the database's batch times; TotalRows and
// AffectedRows stay nil until the first contributing batch arrives.
type DBResult struct {
	Batches      []BatchResult `json:"batches"`
	Time         int64         `json:"time"`
	TotalRows    *int64        `json:"totalRows"`
	AffectedRows *int64        `json:"affectedRows"`
}

// Instance is one open SQL editing/execution session. Fields past Editor are
// transient execution state and are never persisted. Time is the max across
// databases (wall clock of the slowest, since databases run in parallel)
// while TotalRows and AffectedRows are sums; the asymmetry is deliberate.
type Instance struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Pending  int    `json:"pending"`
	Original string `json:"original"`
	Code     string `json:"code"`
	Dirty    bool   `json:"dirty"`
	Path     string `json:"path,omitempty"`
	Timeout  int    `json:"timeout,omitempty"`

	Connections []*InstanceConnection `json:"connections"`
	Connection  *InstanceConnection   `json:"connection"`

	Editor       Editor               `json:"-"`
	Results      map[string]*DBResult `json:"-"`
	TotalRows    *int64               `json:"-"`
	AffectedRows *int64               `json:"-"`
	Time         int64                `json:"-"`
}

// SnapshotFor returns the instance's snapshot for a connection id, or nil.
func (i *Instance) SnapshotFor(connID string) *InstanceConnection {
	for _, snap := range i.Connections {
		if snap.ID == connID {
			return snap
		}
	}
	return nil
}

// RemoveSnapshot drops the snapshot for a connection id if present.
func (i *Instance) RemoveSnapshot(connID string) *InstanceConnection {
	for idx, snap := range i.Connections {
		if snap.ID == connID {
			i.Connections = append(i.Connections[:idx], i.Connections[idx+1:]...)
			return snap
		}
	}
	return nil
}
