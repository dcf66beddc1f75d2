package session

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"sqlpad/internal/domain"
)

// Persisted state slices. Each slice is stored as one JSON document under
// its own key so a corrupt slice only loses itself.
const (
	SliceConnections = "connections"
	SliceInstances   = "instances"
	SliceSettings    = "settings"
	SliceUI          = "ui"
)

var savedSlices = []string{SliceConnections, SliceInstances, SliceSettings, SliceUI}

const (
	stateKeyPrefix  = "app-"
	legacyKeyPrefix = "app-state-"
)

// persistedInstance is the durable projection of an instance: identity,
// content, and connection snapshots. Execution state (pending counter,
// results, counters) and the editor handle are deliberately absent.
type persistedInstance struct {
	ID          string                       `json:"id"`
	Name        string                       `json:"name"`
	Active      bool                         `json:"active"`
	Original    string                       `json:"original"`
	Code        string                       `json:"code"`
	Dirty       bool                         `json:"dirty"`
	Path        string                       `json:"path,omitempty"`
	Timeout     int                          `json:"timeout,omitempty"`
	Connections []*domain.InstanceConnection `json:"connections"`
	Connection  *domain.InstanceConnection   `json:"connection"`
}

func projectInstance(inst *domain.Instance) persistedInstance {
	return persistedInstance{
		ID:          inst.ID,
		Name:        inst.Name,
		Active:      inst.Active,
		Original:    inst.Original,
		Code:        inst.Code,
		Dirty:       inst.Dirty,
		Path:        inst.Path,
		Timeout:     inst.Timeout,
		Connections: inst.Connections,
		Connection:  inst.Connection,
	}
}

// SaveState persists every state slice.
func (s *Session) SaveState() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emit(EvtStateSaving, savedSlices)
	for _, slice := range savedSlices {
		s.saveState(slice)
	}
	s.emit(EvtStateSaved, savedSlices)
}

// saveState serializes one slice and writes it through the KV store.
// Persistence failures are logged, never surfaced; the in-memory model
// stays authoritative.
func (s *Session) saveState(slice string) {
	if s.store == nil {
		return
	}

	var payload any
	switch slice {
	case SliceConnections:
		payload = s.connections
	case SliceInstances:
		projected := make([]persistedInstance, len(s.instances))
		for i, inst := range s.instances {
			projected[i] = projectInstance(inst)
		}
		payload = projected
	case SliceSettings:
		payload = s.settings
	case SliceUI:
		payload = s.ui
	default:
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[session] save state %q: %v", slice, err)
		return
	}
	if err := s.store.Set(stateKeyPrefix+slice, string(data)); err != nil {
		log.Printf("[session] save state %q: %v", slice, err)
	}
}

// RestoreState loads every slice from the KV store and rebuilds the model.
// Missing or unparseable slices fall back to defaults; a restore never
// fails hard. Ends with exactly one active instance (creating a fresh one
// if nothing was persisted).
func (s *Session) RestoreState() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.migrateLegacyKeys()

	s.restoreConnections()
	s.restoreMap(SliceSettings, s.settings)
	s.restoreMap(SliceUI, s.ui)
	s.restoreInstances()
}

// migrateLegacyKeys renames slices stored under the pre-1.0 key scheme.
// The legacy key is removed once its value is copied; an already-populated
// new key wins.
func (s *Session) migrateLegacyKeys() {
	if s.store == nil {
		return
	}
	for _, slice := range savedSlices {
		legacy, ok, err := s.store.Get(legacyKeyPrefix + slice)
		if err != nil || !ok {
			continue
		}
		if _, exists, _ := s.store.Get(stateKeyPrefix + slice); !exists {
			if err := s.store.Set(stateKeyPrefix+slice, legacy); err != nil {
				log.Printf("[session] migrate state %q: %v", slice, err)
				continue
			}
		}
		if err := s.store.Delete(legacyKeyPrefix + slice); err != nil {
			log.Printf("[session] migrate state %q: %v", slice, err)
		}
	}
}

func (s *Session) loadSlice(slice string, out any) bool {
	if s.store == nil {
		return false
	}
	raw, ok, err := s.store.Get(stateKeyPrefix + slice)
	if err != nil {
		log.Printf("[session] restore state %q: %v", slice, err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("[session] restore state %q: %v", slice, err)
		return false
	}
	return true
}

func (s *Session) restoreConnections() {
	var conns []*domain.Connection
	if !s.loadSlice(SliceConnections, &conns) {
		return
	}

	// databases persisted before ids existed get one now
	for _, c := range conns {
		for _, db := range c.Dbs {
			if db.ID == "" {
				db.ID = uuid.New().String()
			}
		}
	}

	domain.SortConnections(conns)
	s.connections = conns
}

// restoreMap merges a persisted map slice over its defaults. Keys the
// current build doesn't know about are kept, so downgrading and upgrading
// round-trips cleanly.
func (s *Session) restoreMap(slice string, dst map[string]any) {
	var m map[string]any
	if !s.loadSlice(slice, &m) {
		return
	}
	for k, v := range m {
		dst[k] = v
	}
}

func (s *Session) restoreInstances() {
	var persisted []persistedInstance
	s.loadSlice(SliceInstances, &persisted)

	activeID := ""
	for _, p := range persisted {
		over := &domain.Instance{
			ID:          p.ID,
			Name:        p.Name,
			Original:    p.Original,
			Code:        p.Code,
			Dirty:       p.Dirty,
			Path:        p.Path,
			Timeout:     p.Timeout,
			Connections: p.Connections,
		}
		// re-link the active snapshot pointer onto the slice element so a
		// later selection change mutates one object, not two
		if p.Connection != nil {
			over.Connection = p.Connection
			for _, snap := range p.Connections {
				if snap.ID == p.Connection.ID {
					over.Connection = snap
					break
				}
			}
		}
		inst := s.createInstance(over)
		if p.Active {
			activeID = inst.ID
		}
	}

	if len(s.instances) == 0 {
		s.switchInstance(s.createInstance(nil))
		return
	}

	target := s.findInstanceByID(activeID)
	if target == nil {
		target = s.instances[len(s.instances)-1]
	}
	// createInstance marks every new instance active; force a reconcile
	// even when the target believes it already is
	s.instance = nil
	for _, i := range s.instances {
		i.Active = false
	}
	s.switchInstance(target)
}

// Settings returns a copy of the settings slice.
func (s *Session) Settings() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.settings)
}

// UI returns a copy of the ui state slice.
func (s *Session) UI() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.ui)
}

// SetSetting stores one settings key and persists the slice.
func (s *Session) SetSetting(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	s.saveState(SliceSettings)
}

// SetUI stores one ui-state key and persists the slice.
func (s *Session) SetUI(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui[key] = value
	s.saveState(SliceUI)
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
