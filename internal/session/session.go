// Package session holds the application's model state: the connection and
// instance registries, the execution bookkeeping, and the persistence
// lifecycle. All mutation happens synchronously inside method or bridge
// handler turns under one mutex; long-running work lives on the other side
// of the bridge and re-enters through reply events.
package session

import (
	"context"
	"sync"

	"sqlpad/internal/bridge"
	"sqlpad/internal/domain"
)

// KV is the durable key/value backend for persisted state slices.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Session is the application context. It is constructed once at startup and
// injected into everything that needs model access.
type Session struct {
	mu      sync.Mutex
	ctx     context.Context
	emitter Emitter
	bus     *bridge.Bus
	store   KV

	connections []*domain.Connection
	instances   []*domain.Instance
	connection  *domain.Connection // active connection, nil = none
	instance    *domain.Instance   // active instance

	settings map[string]any
	ui       map[string]any

	pendingConfirm map[string]*pendingExec
}

// New creates a Session and subscribes it to the bridge reply events.
func New(emitter Emitter, bus *bridge.Bus, store KV) *Session {
	s := &Session{
		ctx:            context.Background(),
		emitter:        emitter,
		bus:            bus,
		store:          store,
		settings:       map[string]any{},
		ui:             map[string]any{"sidebarCollapsed": false},
		pendingConfirm: map[string]*pendingExec{},
	}
	if bus != nil {
		bus.On(bridge.ConnectionDbsFetched, s.onDbsFetched)
		bus.On(bridge.SQLExeDBBegin, s.onExecDBBegin)
		bus.On(bridge.SQLExeDBBatchResult, s.onExecDBBatchResult)
		bus.On(bridge.SQLExeDBComplete, s.onExecDBComplete)
		bus.On(bridge.SQLExeComplete, s.onExecComplete)
		bus.On(bridge.SQLParseComplete, s.onParseComplete)
		bus.On(bridge.DownloadCompleted, s.onDownloadCompleted)
		bus.On(bridge.FileDialogClosed, s.onFileDialogClosed)
	}
	return s
}

// SetContext attaches the runtime context used for frontend emissions.
func (s *Session) SetContext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
}

// Connections returns the registered connections in display order.
func (s *Session) Connections() []*domain.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Connection, len(s.connections))
	copy(out, s.connections)
	return out
}

// Instances returns the open instances in tab order.
func (s *Session) Instances() []*domain.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

// ActiveConnection returns the active connection, or nil.
func (s *Session) ActiveConnection() *domain.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connection
}

// ActiveInstance returns the active instance, or nil.
func (s *Session) ActiveInstance() *domain.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance
}

// FindConnection returns the connection with the given id, or nil.
func (s *Session) FindConnection(id string) *domain.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findConnByID(id)
}

// FindInstance returns the instance with the given id, or nil.
func (s *Session) FindInstance(id string) *domain.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findInstanceByID(id)
}

func (s *Session) findConnByID(id string) *domain.Connection {
	if id == "" {
		return nil
	}
	for _, c := range s.connections {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Session) findInstanceByID(id string) *domain.Instance {
	if id == "" {
		return nil
	}
	for _, i := range s.instances {
		if i.ID == id {
			return i
		}
	}
	return nil
}

func (s *Session) emit(event string, data any) {
	if s.emitter != nil {
		s.emitter.Emit(s.ctx, event, data)
	}
}

// AlertPayload is shown by the frontend as a non-blocking modal.
type AlertPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// LoadingPayload toggles the frontend busy indicator.
type LoadingPayload struct {
	Show    bool   `json:"show"`
	Message string `json:"message,omitempty"`
}

func (s *Session) alert(title, message string) {
	s.emit(EvtAlert, AlertPayload{Title: title, Message: message})
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *Session) onFileDialogClosed(data any) {
	p, ok := data.(bridge.DialogClosed)
	if !ok {
		return
	}
	s.emit(EvtFileDialogClosed, struct {
		Error    string            `json:"error,omitempty"`
		Canceled bool              `json:"canceled"`
		Files    []bridge.FileInfo `json:"files"`
	}{errMsg(p.Err), p.Canceled, p.Files})
}
