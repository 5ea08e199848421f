package store

import "context"

// Collection gives typed access to one collection of a Store.
type Collection[T any] struct {
	store *Store
	name  string
}

// NewCollection binds a typed view to collection name
func NewCollection[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

// Name returns the collection name
func (c *Collection[T]) Name() string {
	return c.name
}

// Store returns the underlying store
func (c *Collection[T]) Store() *Store {
	return c.store
}

// List returns the tenant's items in insertion order
func (c *Collection[T]) List(ctx context.Context, scope Scope) ([]T, error) {
	records, err := c.store.Get(ctx, scope, c.name)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(records))
	for _, rec := range records {
		var item T
		if err := Decode(rec, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Find returns the tenant's item with id
func (c *Collection[T]) Find(ctx context.Context, scope Scope, id string) (T, error) {
	var item T
	rec, err := c.store.Find(ctx, scope, c.name, id)
	if err != nil {
		return item, err
	}
	err = Decode(rec, &item)
	return item, err
}

// Add stores item and returns it as persisted
func (c *Collection[T]) Add(ctx context.Context, scope Scope, item T) (T, error) {
	var out T
	rec, err := Encode(item)
	if err != nil {
		return out, err
	}
	stored, err := c.store.Add(ctx, scope, c.name, rec)
	if err != nil {
		return out, err
	}
	err = Decode(stored, &out)
	return out, err
}

// Update merges patch into the item with id
func (c *Collection[T]) Update(ctx context.Context, scope Scope, id string, patch Record) (T, error) {
	var out T
	updated, err := c.store.Update(ctx, scope, c.name, id, patch)
	if err != nil {
		return out, err
	}
	err = Decode(updated, &out)
	return out, err
}

// Delete removes the item with id
func (c *Collection[T]) Delete(ctx context.Context, scope Scope, id string) error {
	return c.store.Delete(ctx, scope, c.name, id)
}
