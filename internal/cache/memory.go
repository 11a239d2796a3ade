package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryTier is the in-process cache tier: a mutex-guarded map with LRU
// eviction at a fixed capacity. It is the fastest tier and always enabled.
type MemoryTier struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
}

type memoryItem struct {
	key   string
	entry *Entry
}

// NewMemoryTier creates the in-process tier with the given capacity.
func NewMemoryTier(maxEntries int) *MemoryTier {
	initMetrics()
	return &MemoryTier{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// Name implements Tier.
func (t *MemoryTier) Name() string { return "memory" }

// Get implements Tier. A hit refreshes the entry's LRU position.
func (t *MemoryTier) Get(ctx context.Context, key string) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elem, ok := t.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	t.order.MoveToFront(elem)
	return elem.Value.(*memoryItem).entry, nil
}

// Set implements Tier, evicting the least recently used entry at capacity.
func (t *MemoryTier) Set(ctx context.Context, entry *Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elem, ok := t.entries[entry.Key]; ok {
		elem.Value.(*memoryItem).entry = entry
		t.order.MoveToFront(elem)
		return nil
	}

	for len(t.entries) >= t.maxEntries {
		oldest := t.order.Back()
		if oldest == nil {
			break
		}
		t.removeLocked(oldest)
		evictionsTotal.WithLabelValues("capacity").Inc()
	}

	t.entries[entry.Key] = t.order.PushFront(&memoryItem{key: entry.Key, entry: entry})
	tierEntries.WithLabelValues(t.Name()).Set(float64(len(t.entries)))
	return nil
}

// Delete implements Tier.
func (t *MemoryTier) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elem, ok := t.entries[key]; ok {
		t.removeLocked(elem)
	}
	return nil
}

// DeleteScope implements Tier.
func (t *MemoryTier) DeleteScope(ctx context.Context, subjectID string, categories []string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for elem := t.order.Front(); elem != nil; {
		next := elem.Next()
		if matchScope(elem.Value.(*memoryItem).entry, subjectID, categories) {
			t.removeLocked(elem)
			removed++
		}
		elem = next
	}
	return removed, nil
}

// Clear implements Tier.
func (t *MemoryTier) Clear(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := len(t.entries)
	t.entries = make(map[string]*list.Element)
	t.order.Init()
	tierEntries.WithLabelValues(t.Name()).Set(0)
	return removed, nil
}

// Sweep implements Tier, dropping entries that expired before now.
func (t *MemoryTier) Sweep(ctx context.Context, now time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for elem := t.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*memoryItem).entry.Expired(now) {
			t.removeLocked(elem)
			evictionsTotal.WithLabelValues("expired").Inc()
			removed++
		}
		elem = next
	}
	return removed, nil
}

// Close implements Tier.
func (t *MemoryTier) Close() error { return nil }

// Len returns the current entry count.
func (t *MemoryTier) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *MemoryTier) removeLocked(elem *list.Element) {
	item := elem.Value.(*memoryItem)
	delete(t.entries, item.key)
	t.order.Remove(elem)
	tierEntries.WithLabelValues(t.Name()).Set(float64(len(t.entries)))
}
