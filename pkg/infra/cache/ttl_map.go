package cache

import (
	"sort"
	"sync"
	"time"
)

const DefaultMaxEntries = 10000

// TTLEntry represents an entry in TTLMap
type TTLEntry struct {
	Value     interface{}
	ExpiresAt time.Time
	seq       uint64
}

// TTLMap is a thread-safe bounded map with a TTL for each entry. Expiry is
// lazy: an expired entry is absent to readers and removed on the read that
// observes it, or on the next eviction sweep.
type TTLMap struct {
	Data       map[string]*TTLEntry
	Mu         sync.RWMutex
	TTL        time.Duration
	MaxEntries int
	now        func() time.Time
	seq        uint64
}

type TTLMapOption func(*TTLMap)

func WithMaxEntries(n int) TTLMapOption {
	return func(m *TTLMap) {
		if n > 0 {
			m.MaxEntries = n
		}
	}
}

func WithClock(now func() time.Time) TTLMapOption {
	return func(m *TTLMap) {
		m.now = now
	}
}

// NewTTLMap creates a new TTLMap with the specified default TTL
func NewTTLMap(ttl time.Duration, opts ...TTLMapOption) *TTLMap {
	m := &TTLMap{
		Data:       make(map[string]*TTLEntry),
		TTL:        ttl,
		MaxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get retrieves a value from the TTLMap if it hasn't expired
func (m *TTLMap) Get(key string) (interface{}, bool) {
	m.Mu.RLock()
	entry, exists := m.Data[key]
	if !exists {
		m.Mu.RUnlock()
		return nil, false
	}
	isExpired := !m.now().Before(entry.ExpiresAt)
	value := entry.Value
	m.Mu.RUnlock()

	if isExpired {
		m.Mu.Lock()
		if current, ok := m.Data[key]; ok && !m.now().Before(current.ExpiresAt) {
			delete(m.Data, key)
		}
		m.Mu.Unlock()
		return nil, false
	}

	return value, true
}

// Set adds or updates a value using the default TTL
func (m *TTLMap) Set(key string, value interface{}) {
	m.SetWithTTL(key, value, m.TTL)
}

// SetWithTTL overwrites any existing entry for key.
func (m *TTLMap) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if _, exists := m.Data[key]; !exists && len(m.Data) >= m.MaxEntries {
		m.evictLocked()
	}

	m.seq++
	m.Data[key] = &TTLEntry{
		Value:     value,
		ExpiresAt: m.now().Add(ttl),
		seq:       m.seq,
	}
}

// evictLocked drops expired entries, then the oldest tenth by insertion
// order if the map is still full.
func (m *TTLMap) evictLocked() {
	now := m.now()
	for k, e := range m.Data {
		if !now.Before(e.ExpiresAt) {
			delete(m.Data, k)
		}
	}
	if len(m.Data) < m.MaxEntries {
		return
	}

	keys := make([]string, 0, len(m.Data))
	for k := range m.Data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.Data[keys[i]].seq < m.Data[keys[j]].seq
	})
	n := m.MaxEntries / 10
	if n < 1 {
		n = 1
	}
	for _, k := range keys[:n] {
		delete(m.Data, k)
	}
}

// Delete removes a key from the TTLMap
func (m *TTLMap) Delete(key string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	delete(m.Data, key)
}

// Clear removes all entries from the TTLMap
func (m *TTLMap) Clear() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Data = make(map[string]*TTLEntry)
}

func (m *TTLMap) Len() int {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	return len(m.Data)
}
