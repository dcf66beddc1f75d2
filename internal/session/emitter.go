package session

import "context"

// ─────────────────────────────────────────────────────────────
// Emitter — decouples the session core from wailsRuntime
// ─────────────────────────────────────────────────────────────

// Emitter is an interface for emitting events to the frontend.
// The App struct implements this by delegating to wailsRuntime.EventsEmit.
// The session receives this interface instead of a wailsRuntime context,
// which makes it independently testable with a mock emitter.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Frontend event vocabulary. Each lifecycle operation emits a before/after
// pair so the UI can react to state transitions without polling.
const (
	EvtConnAdding      = "connection:adding"
	EvtConnAdded       = "connection:added"
	EvtConnUpdating    = "connection:updating"
	EvtConnUpdated     = "connection:updated"
	EvtConnRemoving    = "connection:removing"
	EvtConnRemoved     = "connection:removed"
	EvtConnSwitching   = "connection:switching"
	EvtConnSwitched    = "connection:switched"
	EvtConnDbsFetching = "connection:dbs-fetching"
	EvtConnDbsFetched  = "connection:dbs-fetched"

	EvtInstanceCreating    = "instance:creating"
	EvtInstanceCreated     = "instance:created"
	EvtInstanceRemoving    = "instance:removing"
	EvtInstanceRemoved     = "instance:removed"
	EvtInstanceSwitching   = "instance:switching"
	EvtInstanceSwitched    = "instance:switched"
	EvtInstanceFileChanged = "instance:file-changed"
	EvtInstanceFileSaved   = "instance:file-saved"

	EvtSQLConfirm    = "sql:confirm-execute"
	EvtSQLExecuting  = "sql:executing"
	EvtSQLDBBegin    = "sql:db-begin"
	EvtSQLDBBatch    = "sql:db-batch"
	EvtSQLDBComplete = "sql:db-complete"
	EvtSQLExecuted   = "sql:executed"
	EvtSQLParsing    = "sql:parsing"
	EvtSQLParsed     = "sql:parsed"

	EvtStateSaving = "state:saving"
	EvtStateSaved  = "state:saved"

	EvtAlert            = "app:alert"
	EvtLoading          = "app:loading"
	EvtFileDialogClosed = "file:dialog-closed"
)

// MockEmitter is a test-friendly Emitter that records all calls.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.Event
	}
	return names
}

// Count returns how many times an event was emitted.
func (m *MockEmitter) Count(event string) int {
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}
