package controller

import (
	"time"

	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
)

// Options tune the controllers
type Options struct {
	// PasswordCost is the bcrypt cost; zero means the library default
	PasswordCost int
	Now          func() time.Time
}

// Controllers bundles every page controller over one store
type Controllers struct {
	Store     *store.Store
	Employees *Resource[model.Employee]
	Partners  *Resource[model.Partner]
	Payroll   *Payroll
	Inventory *Inventory
	Users     *Users
	Reports   *Reports
	Tenants   *Tenants
}

// New wires the controllers
func New(s *store.Store, opts Options) *Controllers {
	users := NewUsers(s, opts.PasswordCost)
	return &Controllers{
		Store:     s,
		Employees: NewEmployees(s),
		Partners:  NewPartners(s),
		Payroll:   NewPayroll(s),
		Inventory: NewInventory(s),
		Users:     users,
		Reports:   NewReports(s),
		Tenants:   NewTenants(s, users, opts.Now),
	}
}
