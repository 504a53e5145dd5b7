package channel

import (
	"context"
	"sync"
)

// Summary is the overview entry of a channel.
type Summary struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Label  string `json:"label"`
	Status Status `json:"status"`
}

// Registry creates controllers on first use and keeps them for the lifetime
// of the process.
type Registry struct {
	deps Deps
	dir  Directory

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry creates a Registry for the channels of dir.
func NewRegistry(deps Deps, dir Directory) *Registry {
	return &Registry{
		deps:        deps,
		dir:         dir,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the controller of channel id, restoring it from the session
// store on first access.
func (r *Registry) Get(ctx context.Context, id string) (*Controller, error) {
	kind, ok := r.dir.Lookup(id)
	if !ok {
		return nil, ErrUnknownChannel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[id]; ok {
		return c, nil
	}
	c, err := Open(ctx, id, kind, r.deps)
	if err != nil {
		return nil, err
	}
	r.controllers[id] = c
	return c, nil
}

// List returns the summary of every channel in directory order.
func (r *Registry) List(ctx context.Context) ([]Summary, error) {
	ids := r.dir.IDs()
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		c, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			ID:     c.ID(),
			Kind:   c.Kind(),
			Label:  c.Label(),
			Status: c.Status(),
		})
	}
	return out, nil
}
