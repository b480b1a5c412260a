package fragment

import (
	"fmt"
	"sort"
	"sync"
)

// Store persists fragments by name. PutAll is all-or-nothing: either
// every fragment in the set is stored or none are.
type Store interface {
	Get(name string) (*Fragment, error)
	Put(f *Fragment) error
	PutAll(fragments []*Fragment) error
	List() ([]*Fragment, error)
	Delete(name string) error
}

// NotFoundError reports a fragment name absent from a store.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fragment not found: %s", e.Name)
}

// MemoryStore is an in-memory Store. Reads return copies, so callers
// cannot mutate stored fragments through shared slices.
type MemoryStore struct {
	mu        sync.RWMutex
	fragments map[string]*Fragment
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fragments: make(map[string]*Fragment)}
}

// Get returns the fragment with the given name.
func (s *MemoryStore) Get(name string) (*Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fragments[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return f.Clone(), nil
}

// Put stores a single fragment, replacing any existing one with the
// same name.
func (s *MemoryStore) Put(f *Fragment) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments[f.Name] = f.Clone()
	return nil
}

// PutAll stores every fragment or none: validation runs over the whole
// set before anything is written.
func (s *MemoryStore) PutAll(fragments []*Fragment) error {
	seen := make(map[string]struct{}, len(fragments))
	for _, f := range fragments {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate fragment name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fragments {
		s.fragments[f.Name] = f.Clone()
	}
	return nil
}

// List returns all fragments sorted by name.
func (s *MemoryStore) List() ([]*Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Fragment, 0, len(s.fragments))
	for _, f := range s.fragments {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a fragment. Deleting an absent name is an error so
// callers notice stale references.
func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fragments[name]; !ok {
		return &NotFoundError{Name: name}
	}
	delete(s.fragments, name)
	return nil
}

// Map returns the store contents keyed by name, the shape the resolver
// and builder consume.
func Map(store Store) (map[string]*Fragment, error) {
	list, err := store.List()
	if err != nil {
		return nil, err
	}
	m := make(map[string]*Fragment, len(list))
	for _, f := range list {
		m[f.Name] = f
	}
	return m, nil
}
