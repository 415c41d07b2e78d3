package supervisor

import (
	"sort"
	"sync"
	"time"

	"hls-supervisor/internal/transcoder"
)

// Registry is the authoritative, concurrency-safe table of registered
// workers, at most one per stream id. Every record gets a fresh generation
// number; callers acting on behalf of one worker pass its generation so a
// late notification never touches a newer record for the same id.
type Registry struct {
	mu      sync.RWMutex
	store   Store
	nextGen uint64
}

// NewRegistry returns an empty registry backed by an InMemoryStore.
func NewRegistry() *Registry {
	return NewRegistryWithStore(NewInMemoryStore())
}

// NewRegistryWithStore returns a registry that keeps its records in store.
func NewRegistryWithStore(store Store) *Registry {
	return &Registry{store: store}
}

// Reserve creates a Starting record for id and returns its generation.
// It fails with ErrWorkerExists if id already has a record.
func (r *Registry) Reserve(id StreamID) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.Get(id); exists {
		return 0, ErrWorkerExists
	}
	r.nextGen++
	r.store.Set(&WorkerRecord{
		StreamID:   id,
		Status:     StatusStarting,
		Generation: r.nextGen,
	})
	return r.nextGen, nil
}

// Attach binds a spawned worker to the reserved record (id, gen) and stamps
// its start time. It reports false if the record is gone or was replaced.
func (r *Registry) Attach(id StreamID, gen uint64, w transcoder.Worker, startedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.lookupLocked(id, gen)
	if !ok {
		return false
	}
	rec.Worker = w
	rec.PID = w.PID()
	rec.StartedAt = startedAt
	return true
}

// Transition moves record (id, gen) to status to if the lifecycle allows it
// and returns the previous status. Allowed moves are Starting -> Running
// and any non-terminal status -> Error or Stopped.
func (r *Registry) Transition(id StreamID, gen uint64, to Status) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.lookupLocked(id, gen)
	if !ok || !canTransition(rec.Status, to) {
		return "", false
	}
	from := rec.Status
	rec.Status = to
	return from, true
}

// Retire removes record (id, gen), if it is still the current one for id,
// and returns it.
func (r *Registry) Retire(id StreamID, gen uint64) (WorkerRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.lookupLocked(id, gen)
	if !ok {
		return WorkerRecord{}, false
	}
	r.store.Delete(id)
	return *rec, true
}

// Remove deletes whatever record id has and returns it.
func (r *Registry) Remove(id StreamID) (WorkerRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.store.Get(id)
	if !ok {
		return WorkerRecord{}, false
	}
	r.store.Delete(id)
	return *rec, true
}

// Drain removes every record and returns them ordered by stream id.
func (r *Registry) Drain() []WorkerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.listLocked()
	for _, rec := range out {
		r.store.Delete(rec.StreamID)
	}
	return out
}

// Get returns a copy of id's record.
func (r *Registry) Get(id StreamID) (WorkerRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.store.Get(id)
	if !ok {
		return WorkerRecord{}, false
	}
	return *rec, true
}

// List returns copies of all records ordered by stream id.
func (r *Registry) List() []WorkerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// Len returns the number of registered workers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.IDs())
}

// listLocked copies the records in id order. Caller must hold r.mu.
func (r *Registry) listLocked() []WorkerRecord {
	ids := r.store.IDs()
	out := make([]WorkerRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.store.Get(id); ok {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreamID < out[j].StreamID })
	return out
}

// lookupLocked returns id's record if its generation is gen.
// Caller must hold r.mu in write mode.
func (r *Registry) lookupLocked(id StreamID, gen uint64) (*WorkerRecord, bool) {
	rec, ok := r.store.Get(id)
	if !ok || rec.Generation != gen {
		return nil, false
	}
	return rec, true
}

func canTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case StatusRunning:
		return from == StatusStarting
	case StatusError, StatusStopped:
		return true
	default:
		return false
	}
}
