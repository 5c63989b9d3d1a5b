package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/internal/session"
	"github.com/giantswarm/lantern/internal/transport"
	"github.com/giantswarm/lantern/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Registry is the directory of configured capability servers and their sessions.
//
// The registry keeps servers in configuration order, guards its map with a
// read/write lock and hands out sessions that callers connect, list and
// invoke independently. Adding and removing servers takes the exclusive
// lock; lookups take the shared one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	order    []string

	factory     transport.Factory
	sessionOpts []session.Option

	// Channel for notifying subscribers about registry changes
	updateChan chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithTransportFactory replaces the transport factory used for new sessions.
func WithTransportFactory(f transport.Factory) Option {
	return func(r *Registry) {
		r.factory = f
	}
}

// WithSessionOptions applies opts to every session the registry creates.
func WithSessionOptions(opts ...session.Option) Option {
	return func(r *Registry) {
		r.sessionOpts = append(r.sessionOpts, opts...)
	}
}

// New creates a registry for servers.
//
// Every descriptor is validated and copied. Duplicate names are rejected.
//
// Args:
//   - servers: the configured servers, in the order they should be listed
//   - opts: transport factory and session options
//
// Returns the registry with every session Disconnected.
func New(servers []api.CapabilityServer, opts ...Option) (*Registry, error) {
	r := &Registry{
		sessions:   make(map[string]*session.Session, len(servers)),
		factory:    transport.New,
		updateChan: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sessionOpts = append(r.sessionOpts, session.WithStateListener(r.stateChanged))

	for _, server := range servers {
		if err := r.add(server); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(server api.CapabilityServer) error {
	if err := config.ValidateServer(server); err != nil {
		return fmt.Errorf("invalid server %q: %w", server.Name, err)
	}
	if _, exists := r.sessions[server.Name]; exists {
		return fmt.Errorf("server %s already registered", server.Name)
	}
	r.sessions[server.Name] = session.New(server, r.factory, r.sessionOpts...)
	r.order = append(r.order, server.Name)
	return nil
}

// ConnectAll connects every session concurrently and waits for all of them.
//
// A failure is recorded on the failing session only; it never cancels or
// delays the other connects. The result maps every server name to its
// connect error, nil on success.
func (r *Registry) ConnectAll(ctx context.Context) map[string]error {
	sessions := r.Sessions()

	results := make(map[string]error, len(sessions))
	var mu sync.Mutex

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(func() error {
			err := s.Connect(ctx)
			mu.Lock()
			results[s.Name()] = err
			mu.Unlock()
			// Never propagate: one failed server must not affect the others.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range results {
		if err != nil {
			failed++
		}
	}
	logging.Info("Registry", "Connected %d of %d servers", len(results)-failed, len(results))
	return results
}

// Get returns the session of the named server, or a NotFoundError.
func (r *Registry) Get(name string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.sessions[name]
	if !exists {
		return nil, api.NewServerNotFoundError(name)
	}
	return s, nil
}

// ListServerNames returns every registered name in configuration order.
func (r *Registry) ListServerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Sessions returns every session in configuration order.
func (r *Registry) Sessions() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*session.Session, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sessions[name])
	}
	return out
}

// Add registers a new server. The session starts Disconnected.
func (r *Registry) Add(server api.CapabilityServer) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.add(server); err != nil {
		return nil, err
	}
	r.notifyUpdate()

	logging.Info("Registry", "Registered server: %s", server.Name)
	return r.sessions[server.Name], nil
}

// Remove deregisters a server and disconnects its session.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	s, exists := r.sessions[name]
	if !exists {
		r.mu.Unlock()
		return api.NewServerNotFoundError(name)
	}
	delete(r.sessions, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	r.notifyUpdate()
	r.mu.Unlock()

	if err := s.Disconnect(); err != nil {
		logging.Warn("Registry", "Error disconnecting %s: %v", name, err)
	}
	logging.Info("Registry", "Deregistered server: %s", name)
	return nil
}

// Close disconnects every session.
func (r *Registry) Close() error {
	var firstErr error
	for _, s := range r.Sessions() {
		if err := s.Disconnect(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Updates returns a channel that receives a notification after servers are
// added or removed, and after a session becomes Ready or Failed.
// Notifications coalesce.
func (r *Registry) Updates() <-chan struct{} {
	return r.updateChan
}

func (r *Registry) stateChanged(name string, state api.SessionState) {
	logging.Debug("Registry", "Server %s is now %s", name, state)
	r.notifyUpdate()
}

// notifyUpdate never blocks; a pending notification absorbs later ones.
func (r *Registry) notifyUpdate() {
	select {
	case r.updateChan <- struct{}{}:
	default:
	}
}
