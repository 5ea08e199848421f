package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr string
	}{
		{
			name: "valid",
			user: User{Name: "Omar", Email: "omar@example.com", Role: RoleAccountant},
		},
		{
			name:    "bad email",
			user:    User{Name: "Omar", Email: "omar", Role: RoleAccountant},
			wantErr: "email: email",
		},
		{
			name:    "unknown role",
			user:    User{Name: "Omar", Email: "omar@example.com", Role: "janitor"},
			wantErr: "role: oneof",
		},
		{
			name:    "missing name",
			user:    User{Email: "omar@example.com", Role: RoleViewer},
			wantErr: "name: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.user)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidatePayroll(t *testing.T) {
	rec := PayrollRecord{
		Period:       "2024-03",
		EmployeeName: "Sara",
		BaseSalary:   decimal.NewFromInt(1000),
		Allowances:   decimal.NewFromInt(200),
		Deductions:   decimal.NewFromInt(50),
		Currency:     "USD",
	}
	require.NoError(t, Validate(rec))

	rec.ComputeTotal()
	assert.True(t, decimal.NewFromInt(1150).Equal(rec.Total))

	bad := rec
	bad.Period = "March"
	assert.ErrorIs(t, Validate(bad), ErrValidation)

	bad = rec
	bad.Deductions = decimal.NewFromInt(-1)
	err := Validate(bad)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "deductions")
}

func TestValidateInventoryAndEmployee(t *testing.T) {
	item := InventoryItem{Name: "Paper", SKU: "P-1", Quantity: -1, Currency: "USD"}
	assert.ErrorIs(t, Validate(item), ErrValidation)

	item.Quantity = 4
	item.UnitPrice = decimal.RequireFromString("2.5")
	require.NoError(t, Validate(item))
	assert.True(t, decimal.NewFromInt(10).Equal(item.Value()))

	emp := Employee{Name: "Sara", Currency: "usd", Status: EmployeeActive}
	assert.ErrorIs(t, Validate(emp), ErrValidation)

	emp.Currency = "USD"
	emp.Status = "Retired"
	assert.ErrorIs(t, Validate(emp), ErrValidation)

	emp.Status = EmployeeOnLeave
	assert.NoError(t, Validate(emp))
}

func TestValidatePartner(t *testing.T) {
	assert.NoError(t, Validate(Partner{Name: "Acme", Type: PartnerVendor}))
	assert.ErrorIs(t, Validate(Partner{Name: "Acme", Type: "Supplier"}), ErrValidation)
	assert.ErrorIs(t, Validate(Partner{Name: "Acme", Type: PartnerCustomer, Email: "nope"}), ErrValidation)
}

func TestUserPublicDropsHash(t *testing.T) {
	u := User{Base: Base{ID: "u1", TenantID: "t1"}, Name: "Omar", PasswordHash: "secret", Role: RoleOwner}
	views := PublicUsers([]User{u})
	require.Len(t, views, 1)
	assert.Equal(t, "u1", views[0].ID)
	assert.Equal(t, RoleOwner, views[0].Role)
}
