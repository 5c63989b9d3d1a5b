// Package resolver turns a qualified (server, operation) pair into a live,
// invocable handle.
//
// Resolution is an exact, case-sensitive match against the filtered
// operations of a Ready session. It never connects or lists: a session that
// is not Ready fails with a NotReadyError so callers can tell "no such
// operation" from "server not initialized".
package resolver

import (
	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/session"
)

// SessionLookup finds the session of a server by name.
type SessionLookup interface {
	Get(name string) (*session.Session, error)
}

// Handle is a resolved operation bound to the session that serves it.
type Handle struct {
	session   *session.Session
	operation api.Operation
}

// NewHandle binds op to s.
func NewHandle(s *session.Session, op api.Operation) *Handle {
	return &Handle{session: s, operation: op}
}

// Server returns the name of the owning server.
func (h *Handle) Server() string { return h.session.Name() }

// Operation returns the resolved operation, parameters included.
func (h *Handle) Operation() api.Operation {
	op := h.operation
	op.Parameters = append([]api.Parameter(nil), h.operation.Parameters...)
	return op
}

// Session returns the session the operation is invoked through.
func (h *Handle) Session() *session.Session { return h.session }

// Resolver resolves operations against a registry.
type Resolver struct {
	sessions SessionLookup
}

// New creates a Resolver reading from sessions.
func New(sessions SessionLookup) *Resolver {
	return &Resolver{sessions: sessions}
}

// Resolve returns the handle of operation on server.
func (r *Resolver) Resolve(server, operation string) (*Handle, error) {
	s, err := r.sessions.Get(server)
	if err != nil {
		return nil, err
	}

	snap := s.Snapshot()
	if snap.State != api.StateReady {
		return nil, &api.NotReadyError{Server: server, State: snap.State}
	}

	op, ok := snap.Lookup(operation)
	if !ok {
		return nil, api.NewOperationNotFoundError(server, operation)
	}
	return NewHandle(s, op), nil
}
