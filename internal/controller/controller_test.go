package controller

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	scopeA = store.Scope{TenantID: "tenant-a", UserID: "admin-a"}
	scopeB = store.Scope{TenantID: "tenant-b", UserID: "admin-b"}
	now    = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newControllers(t *testing.T) *Controllers {
	t.Helper()
	s := store.New(store.NewMemoryBackend())
	return New(s, Options{
		PasswordCost: bcrypt.MinCost,
		Now:          func() time.Time { return now },
	})
}

func sara() model.Employee {
	return model.Employee{
		Name:     "Sara",
		Position: "Clerk",
		Salary:   decimal.NewFromInt(1200),
		Currency: "USD",
		Status:   model.EmployeeActive,
	}
}

func auditActions(t *testing.T, c *Controllers, scope store.Scope) []string {
	t.Helper()
	entries, err := c.Store.Audit(context.Background(), scope, 0)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action+": "+e.Description)
	}
	return actions
}

func TestCreateAuditsAndReloads(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	emp := sara()
	emp.ID = "client-chosen"
	created, items, err := c.Employees.Create(ctx, scopeA, emp)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-chosen", created.ID)
	assert.Equal(t, "tenant-a", created.TenantID)
	assert.True(t, decimal.NewFromInt(1200).Equal(created.Salary))
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)

	assert.Equal(t, []string{"create: Created employee Sara"}, auditActions(t, c, scopeA))
	assert.Empty(t, auditActions(t, c, scopeB))
}

func TestCreateValidationLeavesStoreUntouched(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	bad := sara()
	bad.Status = "Retired"
	_, _, err := c.Employees.Create(ctx, scopeA, bad)
	assert.ErrorIs(t, err, model.ErrValidation)

	items, err := c.Employees.Load(ctx, scopeA)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, auditActions(t, c, scopeA))
}

func TestUpdateMergesAndValidates(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	created, _, err := c.Employees.Create(ctx, scopeA, sara())
	require.NoError(t, err)

	updated, items, err := c.Employees.Update(ctx, scopeA, created.ID, store.Record{"position": "Accountant", "salary": "1500.50"})
	require.NoError(t, err)
	assert.Equal(t, "Accountant", updated.Position)
	assert.Equal(t, "Sara", updated.Name)
	assert.True(t, decimal.RequireFromString("1500.5").Equal(updated.Salary))
	require.Len(t, items, 1)
	assert.Equal(t, "Accountant", items[0].Position)

	_, _, err = c.Employees.Update(ctx, scopeA, created.ID, store.Record{"status": "Gone"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, _, err = c.Employees.Update(ctx, scopeA, created.ID, store.Record{"tenant_id": "tenant-b"})
	assert.ErrorIs(t, err, store.ErrImmutableField)

	_, _, err = c.Employees.Update(ctx, scopeB, created.ID, store.Record{"position": "Spy"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	current, err := c.Employees.Find(ctx, scopeA, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Accountant", current.Position)
	assert.Equal(t, model.EmployeeActive, current.Status)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	partner, _, err := c.Partners.Create(ctx, scopeA, model.Partner{Name: "Acme", Type: model.PartnerVendor})
	require.NoError(t, err)

	var prompt string
	_, err = c.Partners.Delete(ctx, scopeA, partner.ID, ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return false
	}))
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, "Delete partner Acme?", prompt)

	_, err = c.Partners.Delete(ctx, scopeA, partner.ID, nil)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	_, err = c.Partners.Delete(ctx, scopeB, partner.ID, Confirmed)
	assert.ErrorIs(t, err, store.ErrNotFound)

	items, err := c.Partners.Delete(ctx, scopeA, partner.ID, Confirmed)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Equal(t, []string{
		"delete: Deleted partner Acme",
		"create: Created partner Acme",
	}, auditActions(t, c, scopeA))
}

func TestUsersCreateHashesAndRejectsDuplicates(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	user, items, err := c.Users.Create(ctx, scopeA, NewUser{
		Name: "Omar", Email: "Omar@Example.com", Password: "s3cret-pass", Role: model.RoleAccountant,
	})
	require.NoError(t, err)
	assert.Equal(t, "omar@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
	assert.Len(t, items, 1)

	_, _, err = c.Users.Create(ctx, scopeA, NewUser{
		Name: "Other", Email: "OMAR@example.com", Password: "another-pass", Role: model.RoleViewer,
	})
	assert.ErrorIs(t, err, ErrConflict)

	// the same email may exist in another tenant
	_, _, err = c.Users.Create(ctx, scopeB, NewUser{
		Name: "Omar", Email: "omar@example.com", Password: "another-pass", Role: model.RoleOwner,
	})
	assert.NoError(t, err)

	_, _, err = c.Users.Create(ctx, scopeA, NewUser{
		Name: "Short", Email: "short@example.com", Password: "123", Role: model.RoleViewer,
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUsersCannotDeleteThemselves(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	me, _, err := c.Users.Create(ctx, scopeA, NewUser{Name: "Me", Email: "me@example.com", Password: "password-1", Role: model.RoleOwner})
	require.NoError(t, err)
	other, _, err := c.Users.Create(ctx, scopeA, NewUser{Name: "Other", Email: "other@example.com", Password: "password-2", Role: model.RoleViewer})
	require.NoError(t, err)

	self := store.Scope{TenantID: scopeA.TenantID, UserID: me.ID}
	asked := false
	_, err = c.Users.Delete(ctx, self, me.ID, ConfirmFunc(func(context.Context, string) bool {
		asked = true
		return true
	}))
	assert.ErrorIs(t, err, ErrSelfDelete)
	assert.False(t, asked)

	users, err := c.Users.Load(ctx, self)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = c.Users.Delete(ctx, self, other.ID, Confirmed)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, me.ID, users[0].ID)
}

func TestUsersUpdateAndAuthenticate(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	user, _, err := c.Users.Create(ctx, scopeA, NewUser{Name: "Omar", Email: "omar@example.com", Password: "first-pass", Role: model.RoleHR})
	require.NoError(t, err)

	got, err := c.Users.Authenticate(ctx, scopeA.TenantID, " OMAR@example.com", "first-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = c.Users.Authenticate(ctx, scopeA.TenantID, "omar@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = c.Users.Authenticate(ctx, scopeB.TenantID, "omar@example.com", "first-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	updated, _, err := c.Users.Update(ctx, scopeA, user.ID, store.Record{
		"password":       "second-pass",
		"password_hash":  "forged",
		"is_super_admin": true,
		"role":           model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.False(t, updated.IsSuperAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("second-pass")))

	_, _, err = c.Users.Update(ctx, scopeA, user.ID, store.Record{"is_active": false})
	require.NoError(t, err)
	_, err = c.Users.Authenticate(ctx, scopeA.TenantID, "omar@example.com", "second-pass")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestChangePasswordAndLocale(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	user, _, err := c.Users.Create(ctx, scopeA, NewUser{Name: "Omar", Email: "omar@example.com", Password: "first-pass", Role: model.RoleHR})
	require.NoError(t, err)
	self := store.Scope{TenantID: scopeA.TenantID, UserID: user.ID}

	assert.ErrorIs(t, c.Users.ChangePassword(ctx, self, "nope", "second-pass"), ErrInvalidCredentials)
	require.NoError(t, c.Users.ChangePassword(ctx, self, "first-pass", "second-pass"))
	_, err = c.Users.Authenticate(ctx, scopeA.TenantID, "omar@example.com", "second-pass")
	assert.NoError(t, err)

	require.NoError(t, c.Users.SaveLocale(ctx, self, "ar"))
	lang, err := c.Users.LoadLocale(ctx, self)
	require.NoError(t, err)
	assert.Equal(t, "ar", lang)
}

func TestPayrollIsAppendOnly(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	emp, _, err := c.Employees.Create(ctx, scopeA, sara())
	require.NoError(t, err)

	rec, items, err := c.Payroll.Create(ctx, scopeA, model.PayrollRecord{
		Period:     "2024-03",
		EmployeeID: emp.ID,
		Allowances: decimal.NewFromInt(100),
		Deductions: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, "Sara", rec.EmployeeName)
	assert.Equal(t, "USD", rec.Currency)
	assert.True(t, decimal.NewFromInt(1250).Equal(rec.Total), rec.Total.String())
	assert.Len(t, items, 1)

	_, _, err = c.Payroll.Update(ctx, scopeA, rec.ID, store.Record{"total": 1})
	assert.ErrorIs(t, err, ErrUpdateNotAllowed)

	_, _, err = c.Payroll.Create(ctx, scopeA, model.PayrollRecord{Period: "2024-03", EmployeeID: emp.ID})
	assert.ErrorIs(t, err, ErrConflict)

	_, _, err = c.Payroll.Create(ctx, scopeA, model.PayrollRecord{Period: "2024-03", EmployeeID: "missing"})
	assert.ErrorIs(t, err, model.ErrValidation)

	// employees of another tenant cannot be referenced
	_, _, err = c.Payroll.Create(ctx, scopeB, model.PayrollRecord{Period: "2024-03", EmployeeID: emp.ID})
	assert.ErrorIs(t, err, model.ErrValidation)

	items, err = c.Payroll.Delete(ctx, scopeA, rec.ID, Confirmed)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInventorySKUAndAdjust(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	item, _, err := c.Inventory.Create(ctx, scopeA, model.InventoryItem{
		Name: "Paper", SKU: "pp-1", Quantity: 5, UnitPrice: decimal.NewFromInt(3), Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "PP-1", item.SKU)

	_, _, err = c.Inventory.Create(ctx, scopeA, model.InventoryItem{Name: "Copy", SKU: "PP-1", Currency: "USD"})
	assert.ErrorIs(t, err, ErrConflict)

	_, _, err = c.Inventory.Create(ctx, scopeB, model.InventoryItem{Name: "Copy", SKU: "PP-1", Currency: "USD"})
	assert.NoError(t, err)

	adjusted, _, err := c.Inventory.Adjust(ctx, scopeA, item.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 3, adjusted.Quantity)

	_, _, err = c.Inventory.Adjust(ctx, scopeA, item.ID, -4)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, _, err = c.Inventory.Update(ctx, scopeA, item.ID, store.Record{"quantity": -1})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestReportsSummary(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()

	emp, _, err := c.Employees.Create(ctx, scopeA, sara())
	require.NoError(t, err)
	onLeave := sara()
	onLeave.Name = "Ali"
	onLeave.Status = model.EmployeeOnLeave
	_, _, err = c.Employees.Create(ctx, scopeA, onLeave)
	require.NoError(t, err)

	for _, period := range []string{"2024-02", "2024-03"} {
		_, _, err = c.Payroll.Create(ctx, scopeA, model.PayrollRecord{Period: period, EmployeeID: emp.ID})
		require.NoError(t, err)
	}
	_, _, err = c.Partners.Create(ctx, scopeA, model.Partner{Name: "Acme", Type: model.PartnerCustomer})
	require.NoError(t, err)
	_, _, err = c.Inventory.Create(ctx, scopeA, model.InventoryItem{
		Name: "Paper", SKU: "P1", Quantity: 4, UnitPrice: decimal.RequireFromString("2.5"), Currency: "USD",
	})
	require.NoError(t, err)
	_, _, err = c.Inventory.Create(ctx, scopeA, model.InventoryItem{Name: "Ink", SKU: "I1", Currency: "USD"})
	require.NoError(t, err)

	summary, err := c.Reports.Summary(ctx, scopeA, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Employees.Total)
	assert.Equal(t, map[string]int{"Active": 1, "OnLeave": 1}, summary.Employees.ByStatus)
	assert.True(t, decimal.NewFromInt(1200).Equal(summary.Employees.Salaries["USD"]))
	assert.Equal(t, 1, summary.Payroll.Records)
	assert.Equal(t, []string{"2024-02", "2024-03"}, summary.Payroll.Periods)
	assert.True(t, decimal.NewFromInt(1200).Equal(summary.Payroll.Totals["USD"]))
	assert.Equal(t, 1, summary.Partners.ByType["Customer"])
	assert.Equal(t, 4, summary.Inventory.Units)
	assert.Equal(t, 1, summary.Inventory.OutOfStock)
	assert.True(t, decimal.NewFromInt(10).Equal(summary.Inventory.Value["USD"]))

	all, err := c.Reports.Summary(ctx, scopeA, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Payroll.Records)

	empty, err := c.Reports.Summary(ctx, scopeB, "")
	require.NoError(t, err)
	assert.Zero(t, empty.Employees.Total)

	_, err = c.Reports.Summary(ctx, scopeA, "March")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestTenantsBootstrapAndRenew(t *testing.T) {
	c := newControllers(t)
	ctx := context.Background()
	admin := store.Scope{TenantID: "platform", UserID: "root", SuperAdmin: true}

	tenant, owner, err := c.Tenants.Bootstrap(ctx, admin, NewTenant{
		Name: "Acme",
		Plan: "monthly",
		Owner: NewUser{
			Name: "Nadia", Email: "nadia@acme.test", Password: "owner-pass", Role: model.RoleViewer,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, tenant.TenantID)
	assert.Equal(t, now.AddDate(0, 0, 30), tenant.SubscriptionEndsAt.UTC())
	assert.True(t, tenant.Active)
	assert.Equal(t, model.RoleOwner, owner.Role)
	assert.Equal(t, tenant.ID, owner.TenantID)

	_, err = c.Users.Authenticate(ctx, tenant.ID, "nadia@acme.test", "owner-pass")
	assert.NoError(t, err)

	status, err := c.Tenants.Status(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, status.DaysRemaining)
	assert.Equal(t, "Acme", status.TenantName)

	renewed, status, err := c.Tenants.Renew(ctx, admin, tenant.ID, "yearly")
	require.NoError(t, err)
	assert.Equal(t, "yearly", renewed.SubscriptionPlan)
	assert.Equal(t, 395, status.DaysRemaining)

	_, _, err = c.Tenants.Renew(ctx, admin, tenant.ID, "weekly")
	assert.Error(t, err)

	_, err = c.Tenants.Status(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = c.Tenants.Bootstrap(ctx, admin, NewTenant{Name: "", Plan: "monthly"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

// failingInserts fails every insert into one collection and remembers the
// tenants the other inserts went to.
type failingInserts struct {
	store.Backend
	collection string
	tenants    []string
}

func (f *failingInserts) Insert(ctx context.Context, collection string, rec store.Record) error {
	if collection == f.collection {
		return store.ErrUnavailable
	}
	if collection == model.CollectionTenants {
		f.tenants = append(f.tenants, rec.ID())
	}
	return f.Backend.Insert(ctx, collection, rec)
}

func TestBootstrapRemovesTenantWhenOwnerFails(t *testing.T) {
	backend := &failingInserts{Backend: store.NewMemoryBackend(), collection: model.CollectionUsers}
	c := New(store.New(backend), Options{
		PasswordCost: bcrypt.MinCost,
		Now:          func() time.Time { return now },
	})
	ctx := context.Background()

	tenant, _, err := c.Tenants.Bootstrap(ctx, store.Scope{}, NewTenant{
		Name: "Acme",
		Plan: "monthly",
		Owner: NewUser{
			Name: "Nadia", Email: "nadia@acme.test", Password: "owner-pass",
		},
	})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Empty(t, tenant.ID)

	require.Len(t, backend.tenants, 1)
	_, err = c.Tenants.Get(ctx, backend.tenants[0])
	assert.ErrorIs(t, err, store.ErrNotFound)
}
