package app

import (
	"sqlpad/internal/domain"
	"sqlpad/internal/session"
)

// ============================================================
// Connections
// ============================================================

// ListConnections returns the registered connections in display order.
func (a *App) ListConnections() []*domain.Connection {
	return a.session.Connections()
}

// SaveConnection adds or updates a connection.
func (a *App) SaveConnection(conn *domain.Connection) {
	a.session.UpsertConnection(conn)
}

// RemoveConnection deletes a connection by id.
func (a *App) RemoveConnection(id string) {
	a.session.RemoveConnection(session.ConnByID(id))
}

// SwitchConnection makes a connection active; an empty id clears the
// active connection.
func (a *App) SwitchConnection(id string) *domain.Connection {
	return a.session.SwitchConnection(session.ConnByID(id))
}

// RefreshDatabases re-fetches the active connection's database list.
func (a *App) RefreshDatabases() {
	a.session.RefreshDatabases()
}

// SetDatabaseChecked toggles a database's execution selection.
func (a *App) SetDatabaseChecked(dbID string, checked bool) {
	a.session.SetDatabaseChecked(dbID, checked)
}

// SetSearch updates the active connection's database filter.
func (a *App) SetSearch(search string) {
	a.session.SetSearch(search)
}

// ============================================================
// Instances
// ============================================================

// ListInstances returns the open instances in tab order.
func (a *App) ListInstances() []*domain.Instance {
	return a.session.Instances()
}

// NewInstance opens a fresh instance and makes it active.
func (a *App) NewInstance() *domain.Instance {
	inst := a.session.CreateInstance(nil)
	a.session.SwitchInstance(session.InstanceByValue(inst))
	return inst
}

// RemoveInstance closes an instance by id.
func (a *App) RemoveInstance(id string) {
	if a.files != nil {
		a.files.Forget(id)
	}
	a.session.RemoveInstance(session.InstanceByID(id))
}

// SwitchInstance makes an instance active.
func (a *App) SwitchInstance(id string) *domain.Instance {
	return a.session.SwitchInstance(session.InstanceByID(id))
}

// UpdateEditorContent pushes the editor's content and selection for an
// instance.
func (a *App) UpdateEditorContent(instanceID, value, selection string) {
	a.session.UpdateEditor(instanceID, value, selection)
}

// ============================================================
// Execution
// ============================================================

// ExecuteSQL runs the active instance's sql against the checked databases.
// Returns false when nothing was submitted or a confirmation is pending.
func (a *App) ExecuteSQL() bool {
	return a.session.ExecuteSQL()
}

// ConfirmExecute resumes or discards an execution held for confirmation.
func (a *App) ConfirmExecute(instanceID string, confirmed bool) {
	a.session.ConfirmExecute(instanceID, confirmed)
}

// ParseSQL syntax-checks the active instance's sql without running it.
func (a *App) ParseSQL() bool {
	return a.session.ParseSQL()
}

// ============================================================
// Settings / UI state
// ============================================================

// GetSettings returns the settings slice.
func (a *App) GetSettings() map[string]any {
	return a.session.Settings()
}

// SetSetting stores one settings key.
func (a *App) SetSetting(key string, value any) {
	a.session.SetSetting(key, value)
}

// GetUIState returns the ui state slice.
func (a *App) GetUIState() map[string]any {
	return a.session.UI()
}

// SetUIState stores one ui-state key.
func (a *App) SetUIState(key string, value any) {
	a.session.SetUI(key, value)
}
