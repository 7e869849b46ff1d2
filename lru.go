package thredds

import (
	"container/list"
	"context"
	"sync"
)

// MemoryCache is a thread-safe in-process Store with LRU eviction.
// It is useful for tests and one-off runs that should not touch disk.
type MemoryCache struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
}

type memoryEntry struct {
	key  string
	data []byte
}

// NewMemoryCache creates a cache holding at most capacity documents.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get implements Store.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		m.order.MoveToFront(elem)
		return elem.Value.(*memoryEntry).data, true, nil
	}
	return nil, false, nil
}

// Put implements Store.
func (m *MemoryCache) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		elem.Value.(*memoryEntry).data = data
		m.order.MoveToFront(elem)
		return nil
	}

	if m.order.Len() >= m.capacity {
		if back := m.order.Back(); back != nil {
			delete(m.entries, back.Value.(*memoryEntry).key)
			m.order.Remove(back)
		}
	}

	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, data: data})
	return nil
}

// Len returns the current number of entries.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
