// Package cache provides input fingerprints and an in-process memo of
// solve results keyed by them.
package cache

import (
	"sync"
	"time"
)

// Stats holds memo statistics.
type Stats struct {
	Entries int     // Current number of entries.
	Hits    int64   // Successful lookups.
	Misses  int64   // Failed lookups.
	HitRate float64 // Hits / (Hits + Misses).
}

// Memo in-memory кэш результатов с вытеснением давно не использованных записей
type Memo[V any] struct {
	mu         sync.Mutex
	items      map[string]*memoItem[V]
	maxEntries int
	ttl        time.Duration
	tick       uint64

	hits   int64
	misses int64

	now func() time.Time
}

type memoItem[V any] struct {
	value     V
	expiresAt time.Time
	usedAt    uint64
}

func (i *memoItem[V]) isExpired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// NewMemo создаёт кэш. maxEntries <= 0 даёт 64 записи, ttl == 0 - без срока жизни.
func NewMemo[V any](maxEntries int, ttl time.Duration) *Memo[V] {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &Memo[V]{
		items:      make(map[string]*memoItem[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get возвращает значение по ключу
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok || item.isExpired(m.now()) {
		if ok {
			delete(m.items, key)
		}
		m.misses++
		var zero V
		return zero, false
	}

	m.hits++
	m.tick++
	item.usedAt = m.tick
	return item.value, true
}

// Set сохраняет значение, вытесняя самую старую запись при переполнении
func (m *Memo[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tick++
	item := &memoItem[V]{value: value, usedAt: m.tick}
	if m.ttl > 0 {
		item.expiresAt = m.now().Add(m.ttl)
	}

	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLRU()
	}
	m.items[key] = item
}

// Delete удаляет запись
func (m *Memo[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// Len возвращает число записей
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Stats возвращает статистику
func (m *Memo[V]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{Entries: len(m.items), Hits: m.hits, Misses: m.misses}
	if total := m.hits + m.misses; total > 0 {
		s.HitRate = float64(m.hits) / float64(total)
	}
	return s
}

// Clear удаляет все записи
func (m *Memo[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*memoItem[V])
}

func (m *Memo[V]) evictLRU() {
	var oldestKey string
	var oldest uint64

	for key, item := range m.items {
		if oldestKey == "" || item.usedAt < oldest {
			oldestKey = key
			oldest = item.usedAt
		}
	}

	if oldestKey != "" {
		delete(m.items, oldestKey)
	}
}
