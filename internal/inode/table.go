package inode

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Entry records the first-seen (OID, kind) pair for an inode.
type Entry struct {
	OID  string
	Kind Kind
}

// ErrCollision is returned by Table.Register when a second, distinct (OID,
// Kind) pair maps to an inode already claimed by a different pair. The table
// still records the attempt on the slot's collision list.
var ErrCollision = errors.New("inode: collision on register")

// Table is the collision-reporting inode registry. It is safe for concurrent
// use; writers hold the lock only for the duration of a single insert.
type Table struct {
	mu         sync.RWMutex
	entries    map[uint64]Entry
	collisions map[uint64][]Entry
}

// NewTable constructs an empty collision table.
func NewTable() *Table {
	return &Table{
		entries:    make(map[uint64]Entry),
		collisions: make(map[uint64][]Entry),
	}
}

// Register records ino -> (oid, kind). Re-registering an identical pair is a
// no-op. Registering a different pair for an already-claimed inode appends to
// the collision list for that slot and returns ErrCollision; the original
// entry is left untouched (first writer wins).
func (t *Table) Register(ino uint64, oid string, kind Kind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := Entry{OID: oid, Kind: kind}
	existing, ok := t.entries[ino]
	if !ok {
		t.entries[ino] = e
		return nil
	}
	if existing == e {
		return nil
	}
	t.collisions[ino] = append(t.collisions[ino], e)
	return fmt.Errorf("%w: inode %d already holds %s/%s, rejected %s/%s",
		ErrCollision, ino, existing.Kind, existing.OID, kind, oid)
}

// Get returns the entry registered for ino, if any.
func (t *Table) Get(ino uint64) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[ino]
	return e, ok
}

// Collisions returns the recorded competing entries for ino.
func (t *Table) Collisions(ino uint64) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.collisions[ino]...)
}

// snapshotFile is the on-disk JSON shape for a table snapshot. The format is
// implementation-defined and not part of any external contract.
type snapshotFile struct {
	Entries    map[string]Entry   `json:"entries"`
	Collisions map[string][]Entry `json:"collisions,omitempty"`
}

// Snapshot serializes the table to JSON.
func (t *Table) Snapshot() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sf := snapshotFile{
		Entries:    make(map[string]Entry, len(t.entries)),
		Collisions: make(map[string][]Entry, len(t.collisions)),
	}
	for ino, e := range t.entries {
		sf.Entries[fmt.Sprintf("%d", ino)] = e
	}
	for ino, cs := range t.collisions {
		sf.Collisions[fmt.Sprintf("%d", ino)] = cs
	}
	return json.Marshal(sf)
}

// RestoreSnapshot replaces the table's contents with a previously-serialized
// snapshot. It is intended for use across a graceful restart, not as a
// general persistence mechanism.
func (t *Table) RestoreSnapshot(data []byte) error {
	var sf snapshotFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("inode: decode snapshot: %w", err)
	}

	entries := make(map[uint64]Entry, len(sf.Entries))
	for k, e := range sf.Entries {
		var ino uint64
		if _, err := fmt.Sscanf(k, "%d", &ino); err != nil {
			return fmt.Errorf("inode: decode snapshot key %q: %w", k, err)
		}
		entries[ino] = e
	}
	collisions := make(map[uint64][]Entry, len(sf.Collisions))
	for k, cs := range sf.Collisions {
		var ino uint64
		if _, err := fmt.Sscanf(k, "%d", &ino); err != nil {
			return fmt.Errorf("inode: decode snapshot key %q: %w", k, err)
		}
		collisions[ino] = cs
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = entries
	t.collisions = collisions
	return nil
}
