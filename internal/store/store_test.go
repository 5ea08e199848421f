package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tenantA = Scope{TenantID: "tenant-a", UserID: "user-a"}
	tenantB = Scope{TenantID: "tenant-b", UserID: "user-b"}
)

func newTestStore(opts ...Option) *Store {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	seq := 0
	base := []Option{
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	}
	return New(NewMemoryBackend(), append(base, opts...)...)
}

func TestAddThenGetKeepsFieldsVerbatim(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	stored, err := s.Add(ctx, tenantA, "employees", Record{
		"name":   "Sara",
		"salary": 1500,
		"tags":   []string{"finance"},
		"meta":   map[string]any{"desk": "3B"},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-001", stored.ID())
	assert.Equal(t, "tenant-a", stored.TenantID())
	assert.Equal(t, "2024-03-01T09:00:01.000000000Z", stored[FieldCreatedAt])

	records, err := s.Get(ctx, tenantA, "employees")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Sara", rec["name"])
	assert.Equal(t, json.Number("1500"), rec["salary"])
	assert.Equal(t, []any{"finance"}, rec["tags"])
	assert.Equal(t, map[string]any{"desk": "3B"}, rec["meta"])
}

func TestAddKeepsLargeIntegersExact(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Add(ctx, tenantA, "employees", Record{
		"employee_no": int64(9007199254740993),
		"ratio":       0.1,
	})
	require.NoError(t, err)

	records, err := s.Get(ctx, tenantA, "employees")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, json.Number("9007199254740993"), records[0]["employee_no"])
	assert.Equal(t, json.Number("0.1"), records[0]["ratio"])
}

func TestGetKeepsInsertionOrderDespiteSuppliedCreatedAt(t *testing.T) {
	s := New(NewMemoryBackend(), WithClock(func() time.Time {
		return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	}))
	ctx := context.Background()

	for _, rec := range []Record{
		{"name": "first"},
		{"name": "second", "created_at": "2001-01-01"},
		{"name": "third", "created_at": 5},
	} {
		_, err := s.Add(ctx, tenantA, "partners", rec)
		require.NoError(t, err)
	}

	records, err := s.Get(ctx, tenantA, "partners")
	require.NoError(t, err)
	require.Len(t, records, 3)
	var names []string
	for _, rec := range records {
		names = append(names, rec["name"].(string))
		assert.Regexp(t, `^2024-03-01T09:00:00\.\d{9}Z$`, rec[FieldCreatedAt])
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
	assert.Less(t, records[0][FieldCreatedAt].(string), records[1][FieldCreatedAt].(string))
}

func TestAddKeepsSuppliedID(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	stored, err := s.Add(ctx, tenantA, "partners", Record{"id": "p-1", "name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", stored.ID())

	_, err = s.Add(ctx, tenantB, "partners", Record{"id": "p-1", "name": "Other"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestAddDoesNotAliasInput(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	input := Record{"name": "Sara"}
	_, err := s.Add(ctx, tenantA, "employees", input)
	require.NoError(t, err)

	input["name"] = "changed"
	_, hasID := input[FieldID]
	assert.False(t, hasID)

	records, err := s.Get(ctx, tenantA, "employees")
	require.NoError(t, err)
	assert.Equal(t, "Sara", records[0]["name"])
}

func TestAddRejectsForeignTenant(t *testing.T) {
	s := newTestStore()

	_, err := s.Add(context.Background(), tenantA, "employees", Record{"tenant_id": "tenant-b"})
	assert.ErrorIs(t, err, ErrTenantMismatch)
}

func TestTenantIsolation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Add(ctx, tenantA, "inventory", Record{"name": fmt.Sprintf("a-%d", i)})
		require.NoError(t, err)
	}
	_, err := s.Add(ctx, tenantB, "inventory", Record{"name": "b-0"})
	require.NoError(t, err)

	forA, err := s.Get(ctx, tenantA, "inventory")
	require.NoError(t, err)
	assert.Len(t, forA, 3)
	for i, rec := range forA {
		assert.Equal(t, "tenant-a", rec.TenantID())
		assert.Equal(t, fmt.Sprintf("a-%d", i), rec["name"])
	}

	forB, err := s.Get(ctx, tenantB, "inventory")
	require.NoError(t, err)
	require.Len(t, forB, 1)
	assert.Equal(t, "b-0", forB[0]["name"])

	empty, err := s.Get(ctx, Scope{TenantID: "tenant-c"}, "inventory")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteRemovesRecord(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	rec, err := s.Add(ctx, tenantA, "partners", Record{"name": "Acme"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, tenantA, "partners", rec.ID()))

	for _, scope := range []Scope{tenantA, tenantB} {
		records, err := s.Get(ctx, scope, "partners")
		require.NoError(t, err)
		assert.Empty(t, records)
	}

	assert.ErrorIs(t, s.Delete(ctx, tenantA, "partners", rec.ID()), ErrNotFound)
}

func TestCrossTenantMutationsAreNotFound(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	rec, err := s.Add(ctx, tenantA, "partners", Record{"name": "Acme"})
	require.NoError(t, err)

	err = s.Delete(ctx, tenantB, "partners", rec.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, tenantB, "partners", rec.ID(), Record{"name": "Hijacked"})
	assert.ErrorIs(t, err, ErrNotFound)

	records, err := s.Get(ctx, tenantA, "partners")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0]["name"])
}

func TestUpdateMergesPatch(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	rec, err := s.Add(ctx, tenantA, "employees", Record{"name": "Sara", "position": "Clerk"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, tenantA, "employees", rec.ID(), Record{"position": "Accountant", "id": rec.ID()})
	require.NoError(t, err)
	assert.Equal(t, "Sara", updated["name"])
	assert.Equal(t, "Accountant", updated["position"])
	assert.Equal(t, rec[FieldCreatedAt], updated[FieldCreatedAt])
	assert.NotEmpty(t, updated[FieldUpdatedAt])

	found, err := s.Find(ctx, tenantA, "employees", rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Accountant", found["position"])
}

func TestUpdateValidation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	rec, err := s.Add(ctx, tenantA, "employees", Record{"name": "Sara"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		id    string
		patch Record
		want  error
	}{
		{"missing id", "nope", Record{"name": "x"}, ErrNotFound},
		{"empty id", "", Record{"name": "x"}, ErrNotFound},
		{"change id", rec.ID(), Record{"id": "other"}, ErrImmutableField},
		{"change tenant", rec.ID(), Record{"tenant_id": "tenant-b"}, ErrImmutableField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Update(ctx, tenantA, "employees", tt.id, tt.patch)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestScopeAndCollectionValidation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Get(ctx, Scope{}, "employees")
	assert.ErrorIs(t, err, ErrTenantRequired)

	_, err = s.Add(ctx, Scope{}, "employees", Record{})
	assert.ErrorIs(t, err, ErrTenantRequired)

	for _, name := range []string{"", "Employees", "1abc", "a-b", "a:b"} {
		_, err := s.Get(ctx, tenantA, name)
		assert.ErrorIs(t, err, ErrInvalidCollection, name)
	}
}

func TestCancelledContextIsTransient(t *testing.T) {
	s := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, tenantA, "employees")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (r *recordingSink) Publish(_ context.Context, entry AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func TestLogAndAudit(t *testing.T) {
	sink := &recordingSink{}
	s := newTestStore(WithAuditSink(sink))
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, tenantA, "create", "Added employee Sara"))
	require.NoError(t, s.Log(ctx, tenantA, "delete", "Deleted partner Acme"))
	require.NoError(t, s.Log(ctx, tenantB, "create", "Added item"))

	entries, err := s.Audit(ctx, tenantA, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "create", entries[1].Action)
	assert.Equal(t, "user-a", entries[1].UserID)
	assert.Equal(t, "tenant-a", entries[1].TenantID)
	assert.False(t, entries[1].CreatedAt.IsZero())

	limited, err := s.Audit(ctx, tenantA, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "delete", limited[0].Action)

	assert.Len(t, sink.entries, 3)
}

func TestLogIgnoresSinkFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("nats down")}
	s := newTestStore(WithAuditSink(sink))
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, tenantA, "create", "Added employee"))

	entries, err := s.Audit(ctx, tenantA, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConcurrentAdds(t *testing.T) {
	s := New(NewMemoryBackend())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scope := tenantA
			if i%2 == 1 {
				scope = tenantB
			}
			_, err := s.Add(ctx, scope, "employees", Record{"n": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	forA, err := s.Get(ctx, tenantA, "employees")
	require.NoError(t, err)
	assert.Len(t, forA, 10)
}

type employee struct {
	ID       string     `json:"id,omitempty"`
	TenantID string     `json:"tenant_id,omitempty"`
	Name     string     `json:"name"`
	Salary   float64    `json:"salary"`
	HiredAt  *time.Time `json:"created_at,omitempty"`
}

func TestTypedCollection(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	employees := NewCollection[employee](s, "employees")

	added, err := employees.Add(ctx, tenantA, employee{Name: "Sara", Salary: 1500})
	require.NoError(t, err)
	assert.Equal(t, "id-001", added.ID)
	assert.Equal(t, "tenant-a", added.TenantID)
	require.NotNil(t, added.HiredAt)

	updated, err := employees.Update(ctx, tenantA, added.ID, Record{"salary": 1750})
	require.NoError(t, err)
	assert.Equal(t, 1750.0, updated.Salary)

	list, err := employees.List(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sara", list[0].Name)

	require.NoError(t, employees.Delete(ctx, tenantA, added.ID))
	_, err = employees.Find(ctx, tenantA, added.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
