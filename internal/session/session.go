package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/telemetry"
	"github.com/giantswarm/lantern/internal/transport"
	"github.com/giantswarm/lantern/pkg/logging"

	"golang.org/x/sync/singleflight"
)

// Snapshot is an immutable view of a session. A new snapshot replaces the
// old one on every state change.
type Snapshot struct {
	State      api.SessionState
	Operations []api.Operation
	Err        error
	// ReadyAt is when the session last became Ready.
	ReadyAt time.Time
}

// Lookup returns the visible operation with the exact given name.
func (s *Snapshot) Lookup(name string) (api.Operation, bool) {
	for _, op := range s.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return api.Operation{}, false
}

// Session is the live relationship between lantern and one capability server.
type Session struct {
	server  api.CapabilityServer
	factory transport.Factory
	filter  Filter
	metrics *telemetry.Metrics
	onState func(name string, state api.SessionState)

	connectGroup singleflight.Group

	mu        sync.RWMutex
	transport transport.Transport

	snapshot atomic.Pointer[Snapshot]
}

// Option configures a Session.
type Option func(*Session)

// WithDenylist hides the named operations in addition to the server's own filter.
func WithDenylist(names []string) Option {
	return func(s *Session) {
		s.filter.denied = toSet(names)
	}
}

// WithMetrics records connect outcomes on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithStateListener calls fn after the session becomes Ready or Failed.
// fn runs on the goroutine that caused the transition and must not block.
func WithStateListener(fn func(name string, state api.SessionState)) Option {
	return func(s *Session) {
		s.onState = fn
	}
}

// New creates a disconnected session for server. The descriptor is copied.
func New(server api.CapabilityServer, factory transport.Factory, opts ...Option) *Session {
	if factory == nil {
		factory = transport.New
	}
	s := &Session{
		server:  server.Clone(),
		factory: factory,
	}
	s.filter.server = s.server.Filter
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{State: api.StateDisconnected})
	return s
}

// Name returns the server name.
func (s *Session) Name() string { return s.server.Name }

// Server returns a copy of the server descriptor.
func (s *Session) Server() api.CapabilityServer { return s.server.Clone() }

// Snapshot returns the current snapshot. It never blocks.
func (s *Session) Snapshot() *Snapshot { return s.snapshot.Load() }

// State returns the current lifecycle state.
func (s *Session) State() api.SessionState { return s.Snapshot().State }

// Err returns the error that moved the session to Failed, if any.
func (s *Session) Err() error { return s.Snapshot().Err }

// Connect drives the session to Ready. It is a no-op on a Ready session, and
// concurrent callers share a single attempt. The attempt is bounded by the
// server timeout per step, not by ctx: a caller giving up does not fail the
// attempt for the others. On failure the transport is closed and the session
// is left Failed with the error recorded.
func (s *Session) Connect(ctx context.Context) error {
	if s.State() == api.StateReady {
		return nil
	}
	ch := s.connectGroup.DoChan("connect", func() (any, error) {
		return nil, s.connect(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return s.categorize(ctx.Err(), "connect", "")
	}
}

func (s *Session) connect(ctx context.Context) error {
	if s.State() == api.StateReady {
		return nil
	}

	start := time.Now()
	s.setState(api.StateConnecting)
	logging.Debug("Session", "Connecting to %s (%s)", s.server.Name, s.server.Transport)

	t, err := s.factory(s.server)
	if err != nil {
		return s.fail(ctx, nil, &api.ConnectionError{Server: s.server.Name, Err: err})
	}

	openCtx, cancel := context.WithTimeout(ctx, s.server.EffectiveTimeout())
	err = t.Open(openCtx)
	cancel()
	if err != nil {
		return s.fail(ctx, t, s.categorize(err, "connect", ""))
	}
	s.setState(api.StateConnected)

	s.setState(api.StateListing)
	listCtx, cancel := context.WithTimeout(ctx, s.server.EffectiveTimeout())
	ops, err := t.ListOperations(listCtx)
	cancel()
	if err != nil {
		return s.fail(ctx, t, s.categorize(err, "list", ""))
	}

	visible := s.filter.Apply(ops)

	s.mu.Lock()
	s.transport = t
	s.snapshot.Store(&Snapshot{State: api.StateReady, Operations: visible, ReadyAt: time.Now()})
	s.mu.Unlock()

	s.notify(api.StateReady)
	s.metrics.RecordConnect(ctx, s.server.Name, nil)
	logging.Info("Session", "Server %s ready with %d operations (%d hidden) after %s",
		s.server.Name, len(visible), len(ops)-len(visible), time.Since(start).Round(time.Millisecond))
	return nil
}

// fail closes t, records err and moves the session to Failed.
func (s *Session) fail(ctx context.Context, t transport.Transport, err error) error {
	if t != nil {
		if closeErr := t.Close(); closeErr != nil {
			logging.Debug("Session", "Error closing transport for %s: %v", s.server.Name, closeErr)
		}
	}

	s.mu.Lock()
	if s.transport == t {
		s.transport = nil
	}
	s.snapshot.Store(&Snapshot{State: api.StateFailed, Err: err})
	s.mu.Unlock()

	s.notify(api.StateFailed)
	s.metrics.RecordConnect(ctx, s.server.Name, err)
	logging.Warn("Session", "Server %s failed: %v", s.server.Name, err)
	return err
}

// Operations returns the visible operations of a Ready session. With the
// cache policy enabled it returns the list fetched during the Ready
// transition; otherwise it lists again.
func (s *Session) Operations(ctx context.Context) ([]api.Operation, error) {
	snap := s.Snapshot()
	if snap.State != api.StateReady {
		return nil, &api.NotReadyError{Server: s.server.Name, State: snap.State}
	}
	if s.server.Cache.CacheOperationsList {
		return cloneOperations(snap.Operations), nil
	}

	t := s.currentTransport()
	if t == nil {
		return nil, &api.NotReadyError{Server: s.server.Name, State: s.State()}
	}

	listCtx, cancel := context.WithTimeout(ctx, s.server.EffectiveTimeout())
	defer cancel()

	ops, err := t.ListOperations(listCtx)
	if err != nil {
		err = s.categorize(err, "list", "")
		s.markBroken(ctx, t, err)
		return nil, err
	}

	visible := s.filter.Apply(ops)

	s.mu.Lock()
	if s.transport == t {
		s.snapshot.Store(&Snapshot{State: api.StateReady, Operations: visible, ReadyAt: snap.ReadyAt})
	}
	s.mu.Unlock()

	return cloneOperations(visible), nil
}

// Invoke calls an operation on a Ready session. Operations hidden by the
// filter are reported as not found.
func (s *Session) Invoke(ctx context.Context, operation string, arguments json.RawMessage) (*api.Envelope, error) {
	snap := s.Snapshot()
	if snap.State != api.StateReady {
		return nil, &api.NotReadyError{Server: s.server.Name, State: snap.State}
	}
	if !s.filter.Permits(operation) {
		return nil, api.NewOperationNotFoundError(s.server.Name, operation)
	}

	t := s.currentTransport()
	if t == nil {
		return nil, &api.NotReadyError{Server: s.server.Name, State: s.State()}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.server.EffectiveTimeout())
	defer cancel()

	env, err := t.Invoke(callCtx, operation, arguments)
	if err != nil {
		err = s.categorize(err, "invoke", operation)
		s.markBroken(ctx, t, err)
		return nil, err
	}
	return env, nil
}

// Disconnect closes the transport and returns the session to Disconnected.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	t := s.transport
	s.transport = nil
	s.snapshot.Store(&Snapshot{State: api.StateDisconnected})
	s.mu.Unlock()

	if t == nil {
		return nil
	}
	logging.Debug("Session", "Disconnecting from %s", s.server.Name)
	return t.Close()
}

// markBroken moves the session to Failed when err shows the transport can
// no longer be used: the connection dropped, or a stdio child was
// terminated after a timeout.
func (s *Session) markBroken(ctx context.Context, t transport.Transport, err error) {
	broken := api.IsConnection(err) || (api.IsTimeout(err) && t.Kind() == api.TransportStdio)
	if !broken {
		return
	}

	s.mu.Lock()
	current := s.transport == t
	s.mu.Unlock()
	if current {
		_ = s.fail(ctx, t, err)
	}
}

// categorize wraps errors that escaped a transport without a taxonomy type.
func (s *Session) categorize(err error, phase, operation string) error {
	if api.IsCategorized(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &api.TimeoutError{
			Server:    s.server.Name,
			Operation: operation,
			Phase:     phase,
			Timeout:   s.server.EffectiveTimeout(),
			Err:       err,
		}
	}
	switch phase {
	case "list":
		return &api.ProtocolError{Server: s.server.Name, Err: err}
	case "invoke":
		return &api.InvocationError{Server: s.server.Name, Operation: operation, Err: err}
	default:
		return &api.ConnectionError{Server: s.server.Name, Err: err}
	}
}

func (s *Session) notify(state api.SessionState) {
	if s.onState != nil {
		s.onState(s.server.Name, state)
	}
}

func (s *Session) currentTransport() transport.Transport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transport
}

func (s *Session) setState(state api.SessionState) {
	s.snapshot.Store(&Snapshot{State: state})
}

func cloneOperations(ops []api.Operation) []api.Operation {
	out := make([]api.Operation, len(ops))
	for i, op := range ops {
		op.Parameters = append([]api.Parameter(nil), op.Parameters...)
		out[i] = op
	}
	return out
}
