package sightings

import (
	"sync"

	"github.com/agentstation/sightings/pkg/observations"
)

// Workspace holds the observations an edit or identify flow is working on.
// It is passed explicitly to the flows that need it.
type Workspace struct {
	mu  sync.RWMutex
	obs []*observations.Observation
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Add puts observations into the workspace. An observation already present
// under the same UUID is replaced in place.
func (w *Workspace) Add(obs ...*observations.Observation) {
	w.mu.Lock()
	defer w.mu.Unlock()

next:
	for _, o := range obs {
		if o == nil {
			continue
		}
		c := o.Clone()
		for i, existing := range w.obs {
			if existing.UUID == c.UUID {
				w.obs[i] = c
				continue next
			}
		}
		w.obs = append(w.obs, c)
	}
}

// Observations returns copies of the observations in insertion order.
func (w *Workspace) Observations() []*observations.Observation {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*observations.Observation, len(w.obs))
	for i, o := range w.obs {
		out[i] = o.Clone()
	}
	return out
}

// Len returns the number of observations.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.obs)
}
