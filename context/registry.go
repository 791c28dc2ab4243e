// Package context provides a pluggable registry of RootStore backends
// (component H's persistent side), mirroring the teacher's
// BlockchainContext registry but repointed at changeset.RootStore.
package context

import (
	"fmt"
	"sync"

	"github.com/govm-net/corevm/changeset"
)

// StoreType identifies a registered RootStore backend.
type StoreType string

const (
	// MemoryStoreType is the in-memory RootStore, used by tests and
	// ephemeral/read-only query paths.
	MemoryStoreType StoreType = "memory"
	// DBStoreType is the SQLite-backed RootStore.
	DBStoreType StoreType = "db"
)

// Constructor builds a new RootStore instance from backend-specific
// parameters.
type Constructor func(params map[string]any) (changeset.RootStore, error)

type registry struct {
	mu        sync.RWMutex
	backends  map[StoreType]Constructor
	defaultSt StoreType
}

var defaultRegistry = &registry{backends: make(map[StoreType]Constructor)}

// Register adds a new RootStore backend under name st. Re-registering
// the same type overwrites the previous constructor, so an init() in
// each backend package can register itself idempotently.
func Register(st StoreType, ctor Constructor) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.backends[st] = ctor
}

// SetDefault sets the default backend type.
func SetDefault(st StoreType) error {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.backends[st]; !ok {
		return fmt.Errorf("context: store type %s not registered", st)
	}
	defaultRegistry.defaultSt = st
	return nil
}

// Get builds a new RootStore of the given type. An empty st uses the
// default backend (MemoryStoreType if none was set).
func Get(st StoreType, params map[string]any) (changeset.RootStore, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	if st == "" {
		st = defaultRegistry.defaultSt
		if st == "" {
			st = MemoryStoreType
		}
	}
	ctor, ok := defaultRegistry.backends[st]
	if !ok {
		return nil, fmt.Errorf("context: store type %s not found", st)
	}
	return ctor(params)
}

// ListRegistered returns the set of registered backend types.
func ListRegistered() []StoreType {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	out := make([]StoreType, 0, len(defaultRegistry.backends))
	for st := range defaultRegistry.backends {
		out = append(out, st)
	}
	return out
}
