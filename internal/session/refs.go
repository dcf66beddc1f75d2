package session

import "sqlpad/internal/domain"

// Registry operations accept references either by id or by direct value.
// A ref is resolved exactly once at the operation's entry point; a zero ref
// resolves to nothing (which SwitchConnection treats as "no connection").

// ConnRef identifies a connection by id or by value.
type ConnRef struct {
	id   string
	conn *domain.Connection
}

func ConnByID(id string) ConnRef               { return ConnRef{id: id} }
func ConnByValue(c *domain.Connection) ConnRef { return ConnRef{conn: c} }

// InstanceRef identifies an instance by id or by value.
type InstanceRef struct {
	id   string
	inst *domain.Instance
}

func InstanceByID(id string) InstanceRef             { return InstanceRef{id: id} }
func InstanceByValue(i *domain.Instance) InstanceRef { return InstanceRef{inst: i} }

// resolveConn maps a ref onto the registry. A by-value ref must denote a
// registered connection; if the pointer itself is unknown the id is used.
func (s *Session) resolveConn(r ConnRef) *domain.Connection {
	if r.conn != nil {
		for _, c := range s.connections {
			if c == r.conn {
				return c
			}
		}
		return s.findConnByID(r.conn.ID)
	}
	return s.findConnByID(r.id)
}

func (s *Session) resolveInstance(r InstanceRef) *domain.Instance {
	if r.inst != nil {
		for _, i := range s.instances {
			if i == r.inst {
				return i
			}
		}
		return s.findInstanceByID(r.inst.ID)
	}
	return s.findInstanceByID(r.id)
}
