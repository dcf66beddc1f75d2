package domain

// Connection is a configured database server endpoint plus the list of
// databases discovered on it. The raw connection string is what gets handed
// to the execution engine; the remaining fields exist for display/editing.
type Connection struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Server     string      `json:"server"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	Raw        string      `json:"raw"`
	ConfirmSQL bool        `json:"confirmSql"`
	Search     string      `json:"search"`
	Dbs        []*Database `json:"dbs"`
}

// Database is a single database on a connection. State and RecoveryModel
// carry the server's catalog codes (state 0 = ONLINE, recovery model 1 = FULL).
type Database struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	CreateDate         string `json:"create_date"`
	CompatibilityLevel int    `json:"compatibility_level"`
	IsReadOnly         bool   `json:"is_read_only"`
	State              int    `json:"state"`
	RecoveryModel      int    `json:"recovery_model"`
	IsEncrypted        bool   `json:"is_encrypted"`
	Checked            bool   `json:"checked"`
}

// FindDB returns the database with the given id, or nil.
func (c *Connection) FindDB(id string) *Database {
	for _, db := range c.Dbs {
		if db.ID == id {
			return db
		}
	}
	return nil
}

// FindDBByName returns the database with the given name, or nil.
func (c *Connection) FindDBByName(name string) *Database {
	for _, db := range c.Dbs {
		if db.Name == name {
			return db
		}
	}
	return nil
}

// CheckedDBNames returns the names of the databases selected for execution.
func (c *Connection) CheckedDBNames() []string {
	var names []string
	for _, db := range c.Dbs {
		if db.Checked {
			names = append(names, db.Name)
		}
	}
	return names
}

// Snapshot produces the reduced per-instance projection of the connection:
// the per-database checked flags and the search filter, nothing else. An
// instance holds one snapshot per connection it has visited, so selections
// made in one instance never leak into another.
func (c *Connection) Snapshot() *InstanceConnection {
	if c == nil {
		return nil
	}
	snap := &InstanceConnection{ID: c.ID, Search: c.Search, Dbs: []DBSelection{}}
	for _, db := range c.Dbs {
		snap.Dbs = append(snap.Dbs, DBSelection{Name: db.Name, Checked: db.Checked})
	}
	return snap
}

// ApplySnapshot restores the connection's checked flags and search string
// from an instance snapshot. Databases not mentioned in the snapshot are
// unchecked; matching is by name so the snapshot survives a refresh that
// regenerated database ids.
func (c *Connection) ApplySnapshot(snap *InstanceConnection) {
	if snap == nil {
		return
	}
	for _, db := range c.Dbs {
		db.Checked = false
		for _, sel := range snap.Dbs {
			if sel.Name == db.Name {
				db.Checked = sel.Checked
				break
			}
		}
	}
	c.Search = snap.Search
}
