package store

import "context"

// Backend persists records. Every read and mutation is filtered by tenant;
// ids are unique per collection across all tenants.
type Backend interface {
	// List returns the tenant's records of a collection.
	List(ctx context.Context, collection, tenantID string) ([]Record, error)
	// Insert persists rec, which already carries id and tenant_id.
	// Returns ErrDuplicateID when the id is taken in the collection.
	Insert(ctx context.Context, collection string, rec Record) error
	// Patch shallow-merges patch into the tenant's record and returns the result.
	// Returns ErrNotFound when no such record exists for that tenant.
	Patch(ctx context.Context, collection, tenantID, id string, patch Record) (Record, error)
	// Remove deletes the tenant's record. Returns ErrNotFound when absent.
	Remove(ctx context.Context, collection, tenantID, id string) error
	// Close releases backend resources.
	Close(ctx context.Context) error
}
