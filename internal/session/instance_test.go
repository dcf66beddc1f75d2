package session_test

import (
	"testing"

	"sqlpad/internal/domain"
	"sqlpad/internal/session"
)

// ─────────────────────────────────────────────────────────────
// Instance lifecycle
// ─────────────────────────────────────────────────────────────

func TestCreateInstance_Defaults(t *testing.T) {
	s, em, _ := newTestSession(t)

	inst := s.CreateInstance(nil)
	if inst.ID == "" {
		t.Error("expected generated id")
	}
	if inst.Name != "New" {
		t.Errorf("expected default name, got %q", inst.Name)
	}
	if !inst.Active {
		t.Error("expected new instance active")
	}
	if inst.Pending != 0 {
		t.Errorf("expected zero pending, got %d", inst.Pending)
	}
	if inst.Connection != nil {
		t.Error("expected no connection reference without an active connection")
	}
	if inst.Connections == nil || len(inst.Connections) != 0 {
		t.Error("expected empty, non-nil snapshot list")
	}
	if inst.Original != session.ContentHash("") {
		t.Error("expected content hash of empty code")
	}
	if em.Count(session.EvtInstanceCreated) != 1 {
		t.Errorf("expected one created event, got %d", em.Count(session.EvtInstanceCreated))
	}
}

func TestCreateInstance_SeedsActiveConnectionSnapshot(t *testing.T) {
	s, _, _ := newTestSession(t)

	s.UpsertConnection(&domain.Connection{
		ID:  "c1",
		Dbs: []*domain.Database{{ID: "d1", Name: "tenant1", Checked: true}},
	})
	s.SwitchConnection(session.ConnByID("c1"))

	inst := s.CreateInstance(nil)
	if inst.Connection == nil || inst.Connection.ID != "c1" {
		t.Fatal("expected connection snapshot seeded from the active connection")
	}
	if len(inst.Connection.Dbs) != 1 || !inst.Connection.Dbs[0].Checked {
		t.Error("expected snapshot to carry the checked selection")
	}
}

func TestSwitchInstance_ExactlyOneActive(t *testing.T) {
	s, _, _ := newTestSession(t)

	a := s.CreateInstance(&domain.Instance{Name: "a"})
	b := s.CreateInstance(&domain.Instance{Name: "b"})
	c := s.CreateInstance(&domain.Instance{Name: "c"})

	s.SwitchInstance(session.InstanceByValue(b))

	if a.Active || !b.Active || c.Active {
		t.Errorf("expected only b active, got a=%v b=%v c=%v", a.Active, b.Active, c.Active)
	}
	if s.ActiveInstance() != b {
		t.Error("expected b as active instance")
	}
}

func TestSwitchInstance_ReconcilesStaleConnection(t *testing.T) {
	s, _, _ := newTestSession(t)

	a := s.CreateInstance(nil)
	b := s.CreateInstance(nil)
	b.Connection = &domain.InstanceConnection{ID: "gone"}
	b.Connections = []*domain.InstanceConnection{{ID: "gone"}}

	s.SwitchInstance(session.InstanceByValue(a))
	s.SwitchInstance(session.InstanceByValue(b))

	if b.Connection != nil {
		t.Error("expected stale connection reference purged")
	}
	if b.SnapshotFor("gone") != nil {
		t.Error("expected stale snapshot purged")
	}
	if s.ActiveConnection() != nil {
		t.Error("expected no active connection")
	}
}

func TestRemoveInstance_SelectsLeftNeighbor(t *testing.T) {
	s, _, _ := newTestSession(t)

	a := s.CreateInstance(&domain.Instance{Name: "a"})
	b := s.CreateInstance(&domain.Instance{Name: "b"})
	c := s.CreateInstance(&domain.Instance{Name: "c"})
	s.SwitchInstance(session.InstanceByValue(b))

	s.RemoveInstance(session.InstanceByValue(b))

	if s.ActiveInstance() != a {
		t.Errorf("expected left neighbor a active, got %v", s.ActiveInstance())
	}
	if len(s.Instances()) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(s.Instances()))
	}
	_ = c
}

func TestRemoveInstance_FirstSelectsNewFirst(t *testing.T) {
	s, _, _ := newTestSession(t)

	a := s.CreateInstance(&domain.Instance{Name: "a"})
	b := s.CreateInstance(&domain.Instance{Name: "b"})
	s.SwitchInstance(session.InstanceByValue(a))

	s.RemoveInstance(session.InstanceByValue(a))

	if s.ActiveInstance() != b {
		t.Error("expected the element now at the removed index to become active")
	}
}

func TestRemoveInstance_LastCreatesReplacement(t *testing.T) {
	s, em, _ := newTestSession(t)

	only := s.CreateInstance(nil)
	s.SwitchInstance(session.InstanceByValue(only))
	created := em.Count(session.EvtInstanceCreated)

	s.RemoveInstance(session.InstanceByValue(only))

	insts := s.Instances()
	if len(insts) != 1 {
		t.Fatalf("expected a fresh replacement instance, got %d", len(insts))
	}
	if insts[0] == only {
		t.Error("expected a new instance, not the removed one")
	}
	if s.ActiveInstance() != insts[0] {
		t.Error("expected the replacement active")
	}
	if em.Count(session.EvtInstanceCreated) != created+1 {
		t.Error("expected a created event for the replacement")
	}
}

func TestRemoveInstance_InactiveKeepsActive(t *testing.T) {
	s, _, _ := newTestSession(t)

	a := s.CreateInstance(&domain.Instance{Name: "a"})
	b := s.CreateInstance(&domain.Instance{Name: "b"})
	s.SwitchInstance(session.InstanceByValue(a))

	s.RemoveInstance(session.InstanceByValue(b))

	if s.ActiveInstance() != a {
		t.Error("expected active instance unchanged when removing an inactive one")
	}
}

func TestUpdateEditor_DirtyTracking(t *testing.T) {
	s, _, _ := newTestSession(t)

	inst := s.CreateInstance(&domain.Instance{Code: "select 1"})
	if inst.Dirty {
		t.Fatal("expected clean instance")
	}

	s.UpdateEditor(inst.ID, "select 2", "")
	if !inst.Dirty {
		t.Error("expected dirty after content change")
	}

	s.UpdateEditor(inst.ID, "select 1", "")
	if inst.Dirty {
		t.Error("expected clean after content reverted")
	}
}
