// Package changeset implements the per-transaction overlay over a
// persistent RootStore (component H): reads fall through to the root,
// writes accumulate in the overlay, and the overlay is either merged
// atomically into the root or discarded.
package changeset

import (
	"errors"
	"fmt"
)

// ErrReadOnlyWrite is returned when set/delete is attempted while the
// change set is in read-only mode.
var ErrReadOnlyWrite = errors.New("changeset: write forbidden in read-only mode")

// RootStore is the persistent key-value view a ChangeSet overlays.
// context/memory and context/db each provide an implementation.
type RootStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

type entry struct {
	value     []byte
	tombstone bool
}

// ChangeSet is a per-transaction overlay over a RootStore.
type ChangeSet struct {
	root           RootStore
	overlay        map[string]entry
	readOnlyMode   bool
	touchedInRO    bool
}

// New creates an empty overlay over root.
func New(root RootStore) *ChangeSet {
	return &ChangeSet{root: root, overlay: make(map[string]entry)}
}

// SetReadOnly toggles read-only mode; set/delete become forbidden.
func (c *ChangeSet) SetReadOnly(ro bool) { c.readOnlyMode = ro }

// Get reads from the overlay first, falling through to the root store
// on absence. A tombstone in the overlay masks the root's value.
func (c *ChangeSet) Get(key string) ([]byte, bool, error) {
	if e, ok := c.overlay[key]; ok {
		if e.tombstone {
			return nil, false, nil
		}
		return append([]byte(nil), e.value...), true, nil
	}
	return c.root.Get(key)
}

// Set records a create/update in the overlay.
func (c *ChangeSet) Set(key string, value []byte) error {
	if c.readOnlyMode {
		c.touchedInRO = true
		return ErrReadOnlyWrite
	}
	c.overlay[key] = entry{value: append([]byte(nil), value...)}
	return nil
}

// Delete records a tombstone in the overlay.
func (c *ChangeSet) Delete(key string) error {
	if c.readOnlyMode {
		c.touchedInRO = true
		return ErrReadOnlyWrite
	}
	c.overlay[key] = entry{tombstone: true}
	return nil
}

// Any reports whether the overlay has any recorded create/update/delete.
func (c *ChangeSet) Any() bool { return len(c.overlay) > 0 }

// TouchedUnderReadOnly reports whether a write was attempted while in
// read-only mode; a commit that touched the set under read-only mode
// is itself a fault (§4.H).
func (c *ChangeSet) TouchedUnderReadOnly() bool { return c.touchedInRO }

// Merge atomically applies every recorded create/update/delete into
// the root store.
func (c *ChangeSet) Merge() error {
	for key, e := range c.overlay {
		if e.tombstone {
			if err := c.root.Delete(key); err != nil {
				return fmt.Errorf("changeset: merge delete %q: %w", key, err)
			}
			continue
		}
		if err := c.root.Set(key, e.value); err != nil {
			return fmt.Errorf("changeset: merge set %q: %w", key, err)
		}
	}
	return nil
}

// Discard clears the overlay without touching the root store.
func (c *ChangeSet) Discard() { c.overlay = make(map[string]entry) }
