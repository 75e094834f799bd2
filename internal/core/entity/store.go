package entity

import "sync"

// PersonStore is the arena that owns every person created during a run.
// Terminal persons stay in the store with visible=false so later events and
// the leaderboard can still reach them; only Reset releases them.
type PersonStore struct {
	mu    sync.RWMutex
	byID  map[string]*Person
	order []*Person
}

// NewPersonStore returns an empty store.
func NewPersonStore() *PersonStore {
	return &PersonStore{byID: make(map[string]*Person)}
}

// Add registers a person under its id. A duplicate id replaces the previous
// person in place and reports false so the caller can log the collision.
func (s *PersonStore) Add(p *Person) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[p.ID()]; exists {
		s.byID[p.ID()] = p
		for i, old := range s.order {
			if old.ID() == p.ID() {
				s.order[i] = p
				break
			}
		}
		return false
	}

	s.byID[p.ID()] = p
	s.order = append(s.order, p)
	return true
}

// Get looks up a person by id.
func (s *PersonStore) Get(id string) (*Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

// All returns every person in insertion order.
func (s *PersonStore) All() []*Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Person, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored persons.
func (s *PersonStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Reset releases every person.
func (s *PersonStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Person)
	s.order = nil
}
