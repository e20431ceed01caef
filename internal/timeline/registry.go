package timeline

import (
	"sync"

	"chika/internal/model"
)

// Registry maps discussion id to discussion state, updated by both the
// REST load and channel pushes.
type Registry struct {
	mu          sync.RWMutex
	discussions map[int64]model.Discussion
}

func NewRegistry() *Registry {
	return &Registry{discussions: make(map[int64]model.Discussion)}
}

// Reset replaces the registry contents with the hydrated snapshot.
func (r *Registry) Reset(ds []model.Discussion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discussions = make(map[int64]model.Discussion, len(ds))
	for _, d := range ds {
		r.discussions[d.ID] = d
	}
}

// Upsert inserts or overwrites by id. Overwrites of resolved/timeout
// entries are accepted even though the status is documented as terminal: a
// final snapshot may arrive after an earlier ongoing push, and last write
// wins.
func (r *Registry) Upsert(d model.Discussion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discussions[d.ID] = d
}

// Get looks a discussion up by id. A message may reference a discussion
// the registry has never seen; callers render nothing in that case.
func (r *Registry) Get(id int64) (model.Discussion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.discussions[id]
	return d, ok
}

// Len returns the number of known discussions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.discussions)
}
