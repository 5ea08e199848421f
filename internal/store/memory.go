package store

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process Backend. It keeps insertion order per collection.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	order []string
	byID  map[string]Record
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		collections: make(map[string]*memCollection),
	}
}

func (b *MemoryBackend) collection(name string) *memCollection {
	c, ok := b.collections[name]
	if !ok {
		c = &memCollection{byID: make(map[string]Record)}
		b.collections[name] = c
	}
	return c
}

// List returns copies of the tenant's records in insertion order
func (b *MemoryBackend) List(ctx context.Context, collection, tenantID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.collections[collection]
	if !ok {
		return []Record{}, nil
	}

	result := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		rec := c.byID[id]
		if rec.TenantID() == tenantID {
			result = append(result, rec.Clone())
		}
	}
	return result, nil
}

// Insert stores a copy of rec
func (b *MemoryBackend) Insert(ctx context.Context, collection string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.collection(collection)
	id := rec.ID()
	if _, exists := c.byID[id]; exists {
		return ErrDuplicateID
	}
	c.byID[id] = rec.Clone()
	c.order = append(c.order, id)
	return nil
}

// Patch merges patch into the tenant's record
func (b *MemoryBackend) Patch(ctx context.Context, collection, tenantID, id string, patch Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := c.byID[id]
	if !ok || rec.TenantID() != tenantID {
		return nil, ErrNotFound
	}
	rec = merge(rec, patch)
	c.byID[id] = rec
	return rec.Clone(), nil
}

// Remove deletes the tenant's record
func (b *MemoryBackend) Remove(ctx context.Context, collection, tenantID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.collections[collection]
	if !ok {
		return ErrNotFound
	}
	rec, ok := c.byID[id]
	if !ok || rec.TenantID() != tenantID {
		return ErrNotFound
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op for the memory backend
func (b *MemoryBackend) Close(context.Context) error {
	return nil
}
