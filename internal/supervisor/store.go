package supervisor

import "sort"

// Store is the storage abstraction beneath the Registry. Implementations
// need not be safe for concurrent use; the Registry serializes access.
type Store interface {
	Get(id StreamID) (*WorkerRecord, bool)
	Set(rec *WorkerRecord)
	Delete(id StreamID)
	IDs() []StreamID
}

// InMemoryStore is a map-backed Store.
type InMemoryStore struct {
	records map[StreamID]*WorkerRecord
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[StreamID]*WorkerRecord)}
}

// Get implements Store.Get.
func (s *InMemoryStore) Get(id StreamID) (*WorkerRecord, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Set implements Store.Set.
func (s *InMemoryStore) Set(rec *WorkerRecord) {
	s.records[rec.StreamID] = rec
}

// Delete implements Store.Delete.
func (s *InMemoryStore) Delete(id StreamID) {
	delete(s.records, id)
}

// IDs implements Store.IDs. The ids are sorted ascending.
func (s *InMemoryStore) IDs() []StreamID {
	ids := make([]StreamID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
