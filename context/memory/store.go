// Package memory implements an in-memory changeset.RootStore, adapted
// from the teacher's map-of-maps blockchain context: a single flat map
// guarded by a mutex, the way context/memory/context.go guarded its
// balances map.
package memory

import (
	"sync"

	"github.com/govm-net/corevm/changeset"
	"github.com/govm-net/corevm/context"
)

// Store is an in-memory RootStore, safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func init() {
	context.Register(context.MemoryStoreType, func(map[string]any) (changeset.RootStore, error) {
		return New(), nil
	})
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
