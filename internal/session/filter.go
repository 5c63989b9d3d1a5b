package session

import "github.com/giantswarm/lantern/internal/api"

// Filter decides which operations of a server are visible. It combines the
// server's own allow or block list with the global destructive denylist.
type Filter struct {
	server api.ToolFilter
	denied map[string]bool
}

// NewFilter creates a filter from a server filter and a denylist.
func NewFilter(server api.ToolFilter, denied []string) Filter {
	return Filter{server: server, denied: toSet(denied)}
}

// Permits reports whether the named operation is visible.
func (f Filter) Permits(name string) bool {
	if f.denied[name] {
		return false
	}
	return f.server.Permits(name)
}

// Apply returns the visible operations, keeping their order.
func (f Filter) Apply(ops []api.Operation) []api.Operation {
	out := make([]api.Operation, 0, len(ops))
	for _, op := range ops {
		if f.Permits(op.Name) {
			out = append(out, op)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
