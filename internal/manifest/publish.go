package manifest

import (
	"context"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/session"
	"github.com/giantswarm/lantern/pkg/logging"
)

// SessionSource is the part of the registry Publish reads.
type SessionSource interface {
	Sessions() []*session.Session
}

// PublishResult reports what Publish did for one server.
type PublishResult struct {
	Server string
	State  api.SessionState
	// Operations is the number of operations in the written manifest.
	// It is only meaningful when Published is true.
	Operations int
	// Published is true when a manifest was written for the server.
	Published bool
	// Err is the session error of a server that was not Ready, or the
	// error that stopped its manifest from being written.
	Err error
}

// Publish writes the manifest of every Ready session and removes the
// manifest of every other one. Manifests of servers the source no longer
// knows are removed as well. Results follow the source's order.
func Publish(ctx context.Context, src SessionSource, store Store) []PublishResult {
	sessions := src.Sessions()
	results := make([]PublishResult, 0, len(sessions))
	known := make(map[string]bool, len(sessions))

	for _, s := range sessions {
		known[s.Name()] = true
		results = append(results, publishOne(ctx, s, store))
	}

	pruneStale(ctx, store, known)
	return results
}

func publishOne(ctx context.Context, s *session.Session, store Store) PublishResult {
	snap := s.Snapshot()
	res := PublishResult{Server: s.Name(), State: snap.State}

	if snap.State != api.StateReady {
		res.Err = snap.Err
		if res.Err == nil {
			res.Err = &api.NotReadyError{Server: s.Name(), State: snap.State}
		}
		withdraw(ctx, store, s.Name())
		return res
	}

	ops, err := s.Operations(ctx)
	if err != nil {
		res.State = s.State()
		res.Err = err
		withdraw(ctx, store, s.Name())
		return res
	}

	if err := store.Write(ctx, s.Name(), ops); err != nil {
		res.Err = fmt.Errorf("failed to write manifest for %s: %w", s.Name(), err)
		logging.Error("Manifest", err, "Failed to publish manifest for %s", s.Name())
		return res
	}

	res.Operations = len(ops)
	res.Published = true
	logging.Info("Manifest", "Published manifest for %s with %d operations", s.Name(), len(ops))
	return res
}

// withdraw removes the manifest of a server that cannot contribute one.
func withdraw(ctx context.Context, store Store, server string) {
	if err := store.Remove(ctx, server); err != nil {
		logging.Warn("Manifest", "Failed to remove manifest for %s: %v", server, err)
		return
	}
	logging.Debug("Manifest", "Withdrew manifest for %s", server)
}

func pruneStale(ctx context.Context, store Store, known map[string]bool) {
	existing, err := store.List(ctx)
	if err != nil {
		logging.Warn("Manifest", "Failed to list manifests: %v", err)
		return
	}
	for _, name := range existing {
		if !known[name] {
			withdraw(ctx, store, name)
		}
	}
}

// Published reports which of servers currently have a manifest in store.
func Published(ctx context.Context, store Store, servers []string) (map[string]bool, error) {
	names, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]bool, len(names))
	for _, name := range names {
		stored[name] = true
	}

	out := make(map[string]bool, len(servers))
	for _, server := range servers {
		out[server] = stored[server]
	}
	return out, nil
}
