package session

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/google/uuid"

	"sqlpad/internal/domain"
)

// ContentHash fingerprints editor content for unsaved-change detection.
// The contract is deterministic equality, not cryptographic strength.
func ContentHash(code string) string {
	sum := md5.Sum([]byte(code))
	return hex.EncodeToString(sum[:])
}

func newInstanceDefaults() *domain.Instance {
	return &domain.Instance{
		ID:          uuid.New().String(),
		Name:        "New",
		Active:      true,
		Connections: []*domain.InstanceConnection{},
	}
}

// InstanceSwitchPayload accompanies the instance switching/switched events.
type InstanceSwitchPayload struct {
	Instance *domain.Instance `json:"instance"`
	Previous *domain.Instance `json:"previous"`
}

// CreateInstance creates a new instance from defaults, seeded with a
// snapshot of the active connection, with any non-zero fields of over
// taking highest precedence. The content hash is computed from the initial
// code when not supplied.
func (s *Session) CreateInstance(over *domain.Instance) *domain.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createInstance(over)
}

func (s *Session) createInstance(over *domain.Instance) *domain.Instance {
	inst := newInstanceDefaults()

	if snap := s.connection.Snapshot(); snap != nil {
		inst.Connection = snap
		inst.Connections = []*domain.InstanceConnection{snap}
	}

	if over != nil {
		if over.ID != "" {
			inst.ID = over.ID
		}
		if over.Name != "" {
			inst.Name = over.Name
		}
		if over.Code != "" {
			inst.Code = over.Code
		}
		if over.Path != "" {
			inst.Path = over.Path
		}
		if over.Original != "" {
			inst.Original = over.Original
		}
		if over.Timeout != 0 {
			inst.Timeout = over.Timeout
		}
		if over.Connections != nil {
			inst.Connections = over.Connections
		}
		if over.Connection != nil {
			inst.Connection = over.Connection
		}
		if over.Editor != nil {
			inst.Editor = over.Editor
		}
		inst.Dirty = over.Dirty
	}

	if inst.Original == "" {
		inst.Original = ContentHash(inst.Code)
	}

	s.emit(EvtInstanceCreating, inst)
	s.instances = append(s.instances, inst)
	s.emit(EvtInstanceCreated, inst)
	s.saveState(SliceInstances)

	return inst
}

// RemoveInstance removes an instance and returns it, or nil if the ref
// resolves to nothing. When the removed instance was active, the left
// neighbor (else the element now at the same index) becomes active; removing
// the last instance creates and activates a fresh one.
func (s *Session) RemoveInstance(ref InstanceRef) *domain.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.resolveInstance(ref)
	if inst == nil {
		return nil
	}

	idx := -1
	for i, it := range s.instances {
		if it == inst {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	s.emit(EvtInstanceRemoving, inst)

	s.instances = append(s.instances[:idx], s.instances[idx+1:]...)
	if s.instance == inst {
		s.instance = nil
	}

	s.saveState(SliceInstances)
	s.emit(EvtInstanceRemoved, inst)

	if len(s.instances) > 0 && s.instance == nil {
		next := idx - 1
		if next < 0 {
			next = 0
		}
		s.switchInstance(s.instances[next])
	} else if len(s.instances) == 0 {
		s.switchInstance(s.createInstance(nil))
	}

	return inst
}

// SwitchInstance makes an instance the active one. No-op when the ref
// resolves to nothing or to the already-active instance. The instance's
// connection reference is reconciled against the registry: a live referenced
// connection is switched to (restoring its snapshot), a stale reference is
// purged, and no reference clears the active connection.
func (s *Session) SwitchInstance(ref InstanceRef) *domain.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchInstance(s.resolveInstance(ref))
}

func (s *Session) switchInstance(inst *domain.Instance) *domain.Instance {
	if inst == nil || inst == s.instance {
		return nil
	}

	prev := s.instance
	s.emit(EvtInstanceSwitching, InstanceSwitchPayload{Instance: inst, Previous: prev})

	for _, i := range s.instances {
		i.Active = i == inst
	}
	s.instance = inst

	if inst.Connection != nil {
		if conn := s.findConnByID(inst.Connection.ID); conn != nil {
			s.switchConnection(conn)
		} else {
			inst.RemoveSnapshot(inst.Connection.ID)
			inst.Connection = nil
			s.switchConnection(nil)
		}
	} else {
		s.switchConnection(nil)
	}

	s.emit(EvtInstanceSwitched, InstanceSwitchPayload{Instance: inst, Previous: prev})
	s.saveState(SliceInstances)

	return inst
}

// UpdateEditor records the editor's current content and selection for an
// instance and recomputes the dirty flag.
func (s *Session) UpdateEditor(instanceID, value, selection string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(instanceID)
	if inst == nil {
		return
	}
	inst.Code = value
	inst.Dirty = ContentHash(value) != inst.Original
	inst.Editor = &bufferEditor{value: value, selection: selection}
}

// bufferEditor holds the last content pushed from the frontend editor widget.
type bufferEditor struct {
	value     string
	selection string
}

func (e *bufferEditor) GetValue() string     { return e.value }
func (e *bufferEditor) GetSelection() string { return e.selection }

// NotifyFileChanged reports an external modification to an instance's
// backing file so the UI can offer a reload.
func (s *Session) NotifyFileChanged(instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstanceByID(instanceID)
	if inst == nil {
		return
	}
	s.emit(EvtInstanceFileChanged, inst)
}
