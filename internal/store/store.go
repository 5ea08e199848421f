package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/pkg/logger"
	"github.com/suteetoe/bizledger/prometheus"
	"go.uber.org/zap"
)

// AuditCollection holds the append-only audit trail.
const AuditCollection = "audit_logs"

// AuditEntry is one line of a tenant's audit trail
type AuditEntry struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditSink receives audit entries after they are stored.
type AuditSink interface {
	Publish(ctx context.Context, entry AuditEntry) error
}

// Store is the tenant-scoped record store. Every call carries an explicit Scope.
type Store struct {
	backend Backend
	sink    AuditSink
	now     func() time.Time
	newID   func() string

	stampMu sync.Mutex
	last    time.Time
}

// Option configures a Store
type Option func(*Store)

// WithAuditSink publishes stored audit entries to sink
func WithAuditSink(sink AuditSink) Option {
	return func(s *Store) { s.sink = sink }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id assignment
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a Store over backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the creation time of a new record, strictly after the
// previous one so created_at order is insertion order.
func (s *Store) stamp() string {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return FormatTime(t)
}

// Close releases the backend
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

func checkScope(scope Scope, collection string) error {
	if scope.TenantID == "" {
		return ErrTenantRequired
	}
	if !ValidCollection(collection) {
		return errors.Wrapf(ErrInvalidCollection, "%q", collection)
	}
	return nil
}

// finish records metrics and logs failures for one operation.
func finish(ctx context.Context, op, collection string, scope Scope, err error) error {
	err = classify(op, err)
	prometheus.RecordStoreOperation(op, collection, outcome(err))
	if err != nil {
		log := logger.FromContext(ctx)
		fields := []zap.Field{
			zap.String("operation", op),
			zap.String("collection", collection),
			zap.String("tenant_id", scope.TenantID),
			zap.Error(err),
		}
		if IsTransient(err) {
			log.Error("Record store operation failed", fields...)
		} else {
			log.Debug("Record store operation rejected", fields...)
		}
	}
	return err
}

// Get returns the tenant's records of collection in insertion order
func (s *Store) Get(ctx context.Context, scope Scope, collection string) (records []Record, err error) {
	defer prometheus.TrackStoreOperation("get", collection)(time.Now())
	defer func() { err = finish(ctx, "get", collection, scope, err) }()

	if err := checkScope(scope, collection); err != nil {
		return nil, err
	}
	records, err = s.backend.List(ctx, collection, scope.TenantID)
	if err != nil {
		return nil, err
	}
	sortByCreated(records)
	return records, nil
}

// Find returns one of the tenant's records
func (s *Store) Find(ctx context.Context, scope Scope, collection, id string) (Record, error) {
	records, err := s.Get(ctx, scope, collection)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// Add stores a copy of rec under the scope's tenant. A missing id is
// assigned; a tenant_id other than the scope's is rejected. created_at is
// always set by the store.
func (s *Store) Add(ctx context.Context, scope Scope, collection string, rec Record) (stored Record, err error) {
	defer prometheus.TrackStoreOperation("add", collection)(time.Now())
	defer func() { err = finish(ctx, "add", collection, scope, err) }()

	if err := checkScope(scope, collection); err != nil {
		return nil, err
	}

	stored, err = Normalize(rec)
	if err != nil {
		return nil, err
	}

	switch id := stored[FieldID].(type) {
	case nil:
		stored[FieldID] = s.newID()
	case string:
		if id == "" {
			stored[FieldID] = s.newID()
		}
	default:
		return nil, errors.Wrap(ErrInvalidRecord, "id must be a string")
	}

	if tenant, present := stored[FieldTenantID]; present && tenant != scope.TenantID {
		return nil, ErrTenantMismatch
	}
	stored[FieldTenantID] = scope.TenantID

	stored[FieldCreatedAt] = s.stamp()

	if err := s.backend.Insert(ctx, collection, stored); err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// Update merges patch into the tenant's record with id
func (s *Store) Update(ctx context.Context, scope Scope, collection, id string, patch Record) (updated Record, err error) {
	defer prometheus.TrackStoreOperation("update", collection)(time.Now())
	defer func() { err = finish(ctx, "update", collection, scope, err) }()

	if err := checkScope(scope, collection); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrNotFound
	}

	normalized, err := Normalize(patch)
	if err != nil {
		return nil, err
	}
	if v, present := normalized[FieldID]; present {
		if v != id {
			return nil, errors.Wrap(ErrImmutableField, FieldID)
		}
		delete(normalized, FieldID)
	}
	if v, present := normalized[FieldTenantID]; present {
		if v != scope.TenantID {
			return nil, errors.Wrap(ErrImmutableField, FieldTenantID)
		}
		delete(normalized, FieldTenantID)
	}
	delete(normalized, FieldCreatedAt)
	normalized[FieldUpdatedAt] = FormatTime(s.now())

	return s.backend.Patch(ctx, collection, scope.TenantID, id, normalized)
}

// Delete removes the tenant's record with id. Records of other tenants are
// reported as not found and left untouched.
func (s *Store) Delete(ctx context.Context, scope Scope, collection, id string) (err error) {
	defer prometheus.TrackStoreOperation("delete", collection)(time.Now())
	defer func() { err = finish(ctx, "delete", collection, scope, err) }()

	if err := checkScope(scope, collection); err != nil {
		return err
	}
	if id == "" {
		return ErrNotFound
	}
	return s.backend.Remove(ctx, collection, scope.TenantID, id)
}

// Log appends an audit entry for the scope and publishes it to the sink.
// Publishing failures are logged and never returned.
func (s *Store) Log(ctx context.Context, scope Scope, action, description string) error {
	entry := AuditEntry{
		ID:          s.newID(),
		TenantID:    scope.TenantID,
		UserID:      scope.UserID,
		Action:      action,
		Description: description,
	}

	rec, err := Encode(entry)
	if err == nil {
		var stored Record
		stored, err = s.Add(ctx, scope, AuditCollection, rec)
		if err == nil {
			err = Decode(stored, &entry)
		}
	}
	if err != nil {
		prometheus.RecordAuditEntry("store_failed")
		return err
	}
	prometheus.RecordAuditEntry("stored")

	if s.sink != nil {
		if err := s.sink.Publish(ctx, entry); err != nil {
			prometheus.RecordAuditEntry("publish_failed")
			logger.FromContext(ctx).Warn("Failed to publish audit entry",
				zap.String("tenant_id", entry.TenantID),
				zap.String("action", entry.Action),
				zap.Error(err))
		} else {
			prometheus.RecordAuditEntry("published")
		}
	}
	return nil
}

// Audit returns the tenant's audit entries, newest first. limit <= 0 means all.
func (s *Store) Audit(ctx context.Context, scope Scope, limit int) ([]AuditEntry, error) {
	records, err := s.Get(ctx, scope, AuditCollection)
	if err != nil {
		return nil, err
	}

	entries := make([]AuditEntry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		var entry AuditEntry
		if err := Decode(records[i], &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}
