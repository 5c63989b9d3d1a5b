package app

import (
	"context"
	"reflect"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/config"
	"github.com/giantswarm/lantern/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// ConfigDiff summarizes how a reloaded configuration changed the server set.
type ConfigDiff struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the reload changed nothing.
func (d ConfigDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// diffServers compares two server lists by name. A server whose descriptor
// differs in any field counts as changed.
func diffServers(current, next []api.CapabilityServer) ConfigDiff {
	var diff ConfigDiff

	old := make(map[string]api.CapabilityServer, len(current))
	for _, s := range current {
		old[s.Name] = s
	}
	seen := make(map[string]bool, len(next))

	for _, s := range next {
		seen[s.Name] = true
		prev, exists := old[s.Name]
		switch {
		case !exists:
			diff.Added = append(diff.Added, s.Name)
		case !reflect.DeepEqual(prev, s):
			diff.Changed = append(diff.Changed, s.Name)
		}
	}
	for _, s := range current {
		if !seen[s.Name] {
			diff.Removed = append(diff.Removed, s.Name)
		}
	}
	return diff
}

// ApplyConfig brings the registry in line with a reloaded configuration.
// Removed servers are disconnected, changed servers are replaced by fresh
// Disconnected sessions and new servers are registered. Connecting and
// republishing is left to Refresh.
func (a *Application) ApplyConfig(next config.LanternConfig) (ConfigDiff, error) {
	diff := diffServers(a.cfg.Servers, next.Servers)
	if diff.Empty() {
		logging.Debug("Reload", "Configuration reloaded without server changes")
		a.cfg = next
		return diff, nil
	}

	for _, name := range append(append([]string(nil), diff.Removed...), diff.Changed...) {
		if err := a.registry.Remove(name); err != nil && !api.IsNotFound(err) {
			logging.Warn("Reload", "Failed to remove server %s: %v", name, err)
		}
	}

	var firstErr error
	for _, name := range append(append([]string(nil), diff.Changed...), diff.Added...) {
		server, _ := next.Server(name)
		if _, err := a.registry.Add(server); err != nil {
			logging.Error("Reload", err, "Failed to register server %s", name)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.cfg = next
	logging.Info("Reload", "Servers added: %d, removed: %d, changed: %d",
		len(diff.Added), len(diff.Removed), len(diff.Changed))
	return diff, firstErr
}

// Refresh connects every session that has not been connected yet and
// republishes all manifests.
func (a *Application) Refresh(ctx context.Context) {
	var g errgroup.Group
	for _, s := range a.registry.Sessions() {
		if s.State() != api.StateDisconnected {
			continue
		}
		g.Go(func() error {
			if err := s.Connect(ctx); err != nil {
				logging.Warn("Refresh", "Server %s failed to connect: %v", s.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, r := range a.Publish(ctx) {
		if r.Err != nil {
			logging.Debug("Refresh", "Manifest for %s withdrawn: %v", r.Server, r.Err)
		}
	}
}
