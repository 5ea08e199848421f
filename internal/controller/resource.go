package controller

import (
	"context"

	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// Item is a model held in a collection
type Item interface {
	GetID() string
}

// Hooks customise a Resource. Every hook is optional.
type Hooks[T Item] struct {
	// Describe names an item in audit descriptions and prompts
	Describe func(item T) string

	// Prepare fills derived fields before validation on create and update
	Prepare func(ctx context.Context, scope store.Scope, item *T) error

	CheckCreate func(ctx context.Context, scope store.Scope, item T, existing []T) error
	CheckUpdate func(ctx context.Context, scope store.Scope, current, next T, existing []T) error
	CheckDelete func(ctx context.Context, scope store.Scope, item T) error

	// ReadOnly rejects updates with ErrUpdateNotAllowed
	ReadOnly bool
}

// Resource drives the load, create, update and delete cycle of one collection.
// Each successful mutation is audited and followed by a reload of the list.
type Resource[T Item] struct {
	store *store.Store
	items *store.Collection[T]
	kind  string
	hooks Hooks[T]
}

// NewResource creates a resource over collection. kind names the items in audit entries.
func NewResource[T Item](s *store.Store, collection, kind string, hooks Hooks[T]) *Resource[T] {
	return &Resource[T]{
		store: s,
		items: store.NewCollection[T](s, collection),
		kind:  kind,
		hooks: hooks,
	}
}

// Kind returns the item kind
func (r *Resource[T]) Kind() string {
	return r.kind
}

// Load returns the tenant's items
func (r *Resource[T]) Load(ctx context.Context, scope store.Scope) ([]T, error) {
	return r.items.List(ctx, scope)
}

// Find returns one of the tenant's items
func (r *Resource[T]) Find(ctx context.Context, scope store.Scope, id string) (T, error) {
	return r.items.Find(ctx, scope, id)
}

// Create validates and stores item, then returns it with the reloaded list
func (r *Resource[T]) Create(ctx context.Context, scope store.Scope, item T) (T, []T, error) {
	var zero T
	log := logger.FromContext(ctx)

	item, err := withoutReserved(item)
	if err != nil {
		return zero, nil, err
	}
	if r.hooks.Prepare != nil {
		if err := r.hooks.Prepare(ctx, scope, &item); err != nil {
			return zero, nil, err
		}
	}
	if err := model.Validate(item); err != nil {
		return zero, nil, err
	}
	if r.hooks.CheckCreate != nil {
		existing, err := r.items.List(ctx, scope)
		if err != nil {
			return zero, nil, err
		}
		if err := r.hooks.CheckCreate(ctx, scope, item, existing); err != nil {
			return zero, nil, err
		}
	}

	stored, err := r.items.Add(ctx, scope, item)
	if err != nil {
		log.Error("Failed to create record",
			zap.String("kind", r.kind),
			zap.String("tenant_id", scope.TenantID),
			zap.Error(err))
		return zero, nil, err
	}

	log.Info("Record created",
		zap.String("kind", r.kind),
		zap.String("id", stored.GetID()),
		zap.String("tenant_id", scope.TenantID))
	r.audit(ctx, scope, ActionCreate, "Created "+r.describe(stored))
	return stored, r.reload(ctx, scope), nil
}

// Update merges patch into the item with id, validates the result and stores it
func (r *Resource[T]) Update(ctx context.Context, scope store.Scope, id string, patch store.Record) (T, []T, error) {
	var zero T
	log := logger.FromContext(ctx)

	if r.hooks.ReadOnly {
		return zero, nil, ErrUpdateNotAllowed
	}

	current, err := r.items.Find(ctx, scope, id)
	if err != nil {
		return zero, nil, err
	}
	next, err := applyPatch(current, id, scope.TenantID, patch)
	if err != nil {
		return zero, nil, err
	}
	if r.hooks.Prepare != nil {
		if err := r.hooks.Prepare(ctx, scope, &next); err != nil {
			return zero, nil, err
		}
	}
	if err := model.Validate(next); err != nil {
		return zero, nil, err
	}
	if r.hooks.CheckUpdate != nil {
		existing, err := r.items.List(ctx, scope)
		if err != nil {
			return zero, nil, err
		}
		if err := r.hooks.CheckUpdate(ctx, scope, current, next, existing); err != nil {
			return zero, nil, err
		}
	}

	changes, err := store.Encode(next)
	if err != nil {
		return zero, nil, err
	}
	stripReserved(changes)

	updated, err := r.items.Update(ctx, scope, id, changes)
	if err != nil {
		log.Error("Failed to update record",
			zap.String("kind", r.kind),
			zap.String("id", id),
			zap.String("tenant_id", scope.TenantID),
			zap.Error(err))
		return zero, nil, err
	}

	log.Info("Record updated",
		zap.String("kind", r.kind),
		zap.String("id", id),
		zap.String("tenant_id", scope.TenantID))
	r.audit(ctx, scope, ActionUpdate, "Updated "+r.describe(updated))
	return updated, r.reload(ctx, scope), nil
}

// Delete removes the item with id once confirmer approves
func (r *Resource[T]) Delete(ctx context.Context, scope store.Scope, id string, confirmer Confirmer) ([]T, error) {
	log := logger.FromContext(ctx)

	item, err := r.items.Find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if r.hooks.CheckDelete != nil {
		if err := r.hooks.CheckDelete(ctx, scope, item); err != nil {
			return nil, err
		}
	}
	if confirmer == nil || !confirmer.Confirm(ctx, "Delete "+r.describe(item)+"?") {
		return nil, ErrNotConfirmed
	}

	if err := r.items.Delete(ctx, scope, id); err != nil {
		log.Error("Failed to delete record",
			zap.String("kind", r.kind),
			zap.String("id", id),
			zap.String("tenant_id", scope.TenantID),
			zap.Error(err))
		return nil, err
	}

	log.Info("Record deleted",
		zap.String("kind", r.kind),
		zap.String("id", id),
		zap.String("tenant_id", scope.TenantID))
	r.audit(ctx, scope, ActionDelete, "Deleted "+r.describe(item))
	return r.reload(ctx, scope), nil
}

func (r *Resource[T]) describe(item T) string {
	if r.hooks.Describe != nil {
		if d := r.hooks.Describe(item); d != "" {
			return r.kind + " " + d
		}
	}
	return r.kind + " " + item.GetID()
}

// audit never fails the action it records
func (r *Resource[T]) audit(ctx context.Context, scope store.Scope, action, description string) {
	if err := r.store.Log(ctx, scope, action, description); err != nil {
		logger.FromContext(ctx).Warn("Failed to write audit entry",
			zap.String("action", action),
			zap.String("tenant_id", scope.TenantID),
			zap.Error(err))
	}
}

// reload returns the fresh list. Failures are logged and yield nil.
func (r *Resource[T]) reload(ctx context.Context, scope store.Scope) []T {
	items, err := r.items.List(ctx, scope)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to reload records",
			zap.String("kind", r.kind),
			zap.String("tenant_id", scope.TenantID),
			zap.Error(err))
		return nil
	}
	return items
}

var reservedFields = []string{store.FieldID, store.FieldTenantID, store.FieldCreatedAt, store.FieldUpdatedAt}

func stripReserved(rec store.Record) {
	for _, f := range reservedFields {
		delete(rec, f)
	}
}

// withoutReserved drops client supplied ids and timestamps
func withoutReserved[T any](item T) (T, error) {
	var out T
	rec, err := store.Encode(item)
	if err != nil {
		return out, err
	}
	stripReserved(rec)
	err = store.Decode(rec, &out)
	return out, err
}

// applyPatch returns current with patch merged on top
func applyPatch[T any](current T, id, tenantID string, patch store.Record) (T, error) {
	var next T
	changes, err := store.Normalize(patch)
	if err != nil {
		return next, err
	}
	if v, ok := changes[store.FieldID]; ok && v != id {
		return next, errors.Wrap(store.ErrImmutableField, store.FieldID)
	}
	if v, ok := changes[store.FieldTenantID]; ok && v != tenantID {
		return next, errors.Wrap(store.ErrImmutableField, store.FieldTenantID)
	}
	stripReserved(changes)

	rec, err := store.Encode(current)
	if err != nil {
		return next, err
	}
	for k, v := range changes {
		rec[k] = v
	}
	err = store.Decode(rec, &next)
	return next, err
}
