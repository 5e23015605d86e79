package fieldmatch

import (
	"sync"

	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// RefreshHook is called after a refresh replaced the taxonomy with one that
// differs from the previous. old is nil on the first fetch.
type RefreshHook func(old, updated *taxonomy.Taxonomy, changes *taxonomy.Changeset)

// Hooks registers callbacks for taxonomy changes.
type Hooks interface {
	// OnRefresh registers a callback run after a changing refresh
	OnRefresh(fn RefreshHook)
}

// hooks manages event callbacks for taxonomy changes
type hooks struct {
	mu        sync.RWMutex
	onRefresh []RefreshHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnRefresh registers a callback for taxonomy changes.
func (c *client) OnRefresh(fn RefreshHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRefresh = append(c.hooks.onRefresh, fn)
}

// triggerRefresh runs every refresh hook in registration order.
func (h *hooks) triggerRefresh(old, updated *taxonomy.Taxonomy, changes *taxonomy.Changeset) {
	h.mu.RLock()
	fns := make([]RefreshHook, len(h.onRefresh))
	copy(fns, h.onRefresh)
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(old, updated, changes)
	}
}
