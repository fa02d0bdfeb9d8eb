package gitdb

import (
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// prefixMemo memoizes the O(n) short-hex-prefix scan ResolvePrefix falls
// back to, keyed on the prefix string queried.
type prefixMemo struct {
	mu         sync.RWMutex
	entries    map[string]prefixMemoEntry
	ttl        time.Duration
	maxEntries int
	stopCh     chan struct{}
}

type prefixMemoEntry struct {
	hash      plumbing.Hash
	expiresAt time.Time
}

func newPrefixMemo(ttl time.Duration, maxEntries int) *prefixMemo {
	m := &prefixMemo{
		entries:    make(map[string]prefixMemoEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}
	go m.cleanup()
	return m
}

func (m *prefixMemo) get(prefix string) (plumbing.Hash, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[prefix]
	if !ok || time.Now().After(e.expiresAt) {
		return plumbing.ZeroHash, false
	}
	return e.hash, true
}

func (m *prefixMemo) set(prefix string, hash plumbing.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		if _, exists := m.entries[prefix]; !exists {
			m.evictOldestLocked()
		}
	}
	m.entries[prefix] = prefixMemoEntry{hash: hash, expiresAt: time.Now().Add(m.ttl)}
}

func (m *prefixMemo) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.expiresAt.Before(oldestExpiry) {
			oldestKey = k
			oldestExpiry = e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *prefixMemo) stop() {
	close(m.stopCh)
}

func (m *prefixMemo) cleanup() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for k, e := range m.entries {
				if now.After(e.expiresAt) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		case <-m.stopCh:
			return
		}
	}
}

// refListMemo memoizes the two whole-repository ref listings this façade
// exposes (branches and tags); each slot expires independently on the same
// TTL the rest of gitdb uses for Git-backed memoization.
type refListMemo struct {
	mu       sync.Mutex
	ttl      time.Duration
	branches refListMemoSlot
	tags     refListMemoSlot
}

type refListMemoSlot struct {
	entries   []RefEntry
	expiresAt time.Time
	valid     bool
}

func newRefListMemo(ttl time.Duration) *refListMemo {
	return &refListMemo{ttl: ttl}
}

func (m *refListMemo) getBranches() ([]RefEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getSlot(m.branches)
}

func (m *refListMemo) setBranches(entries []RefEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches = m.newSlot(entries)
}

func (m *refListMemo) getTags() ([]RefEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getSlot(m.tags)
}

func (m *refListMemo) setTags(entries []RefEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = m.newSlot(entries)
}

func (m *refListMemo) newSlot(entries []RefEntry) refListMemoSlot {
	return refListMemoSlot{entries: entries, expiresAt: time.Now().Add(m.ttl), valid: true}
}

func getSlot(s refListMemoSlot) ([]RefEntry, bool) {
	if !s.valid || time.Now().After(s.expiresAt) {
		return nil, false
	}
	return s.entries, true
}
