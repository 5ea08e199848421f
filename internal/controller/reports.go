package controller

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
)

// Summary aggregates a tenant's books
type Summary struct {
	Period    string           `json:"period,omitempty"`
	Employees EmployeeSummary  `json:"employees"`
	Payroll   PayrollSummary   `json:"payroll"`
	Partners  PartnerSummary   `json:"partners"`
	Inventory InventorySummary `json:"inventory"`
}

// EmployeeSummary counts employees and their monthly cost
type EmployeeSummary struct {
	Total    int                        `json:"total"`
	ByStatus map[string]int             `json:"by_status"`
	Salaries map[string]decimal.Decimal `json:"active_salaries"`
}

// PayrollSummary totals payroll per currency
type PayrollSummary struct {
	Records int                        `json:"records"`
	Totals  map[string]decimal.Decimal `json:"totals"`
	Periods []string                   `json:"periods"`
}

// PartnerSummary counts partners by type
type PartnerSummary struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// InventorySummary values stock per currency
type InventorySummary struct {
	Items      int                        `json:"items"`
	Units      int                        `json:"units"`
	OutOfStock int                        `json:"out_of_stock"`
	Value      map[string]decimal.Decimal `json:"value"`
}

// Reports computes read-only aggregates
type Reports struct {
	employees *store.Collection[model.Employee]
	payroll   *store.Collection[model.PayrollRecord]
	partners  *store.Collection[model.Partner]
	inventory *store.Collection[model.InventoryItem]
}

// NewReports creates the reports controller
func NewReports(s *store.Store) *Reports {
	return &Reports{
		employees: store.NewCollection[model.Employee](s, model.CollectionEmployees),
		payroll:   store.NewCollection[model.PayrollRecord](s, model.CollectionPayroll),
		partners:  store.NewCollection[model.Partner](s, model.CollectionPartners),
		inventory: store.NewCollection[model.InventoryItem](s, model.CollectionInventory),
	}
}

// Summary aggregates the tenant's data. A non-empty period (YYYY-MM) limits payroll to that month.
func (r *Reports) Summary(ctx context.Context, scope store.Scope, period string) (Summary, error) {
	if period != "" {
		if _, err := time.Parse("2006-01", period); err != nil {
			return Summary{}, errors.Wrap(model.ErrValidation, "period: expected YYYY-MM")
		}
	}
	summary := Summary{Period: period}

	employees, err := r.employees.List(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	summary.Employees = EmployeeSummary{
		Total:    len(employees),
		ByStatus: map[string]int{},
		Salaries: map[string]decimal.Decimal{},
	}
	for _, e := range employees {
		summary.Employees.ByStatus[e.Status]++
		if e.Status == model.EmployeeActive {
			summary.Employees.Salaries[e.Currency] = summary.Employees.Salaries[e.Currency].Add(e.Salary)
		}
	}

	payroll, err := r.payroll.List(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	summary.Payroll = PayrollSummary{Totals: map[string]decimal.Decimal{}, Periods: []string{}}
	seen := map[string]bool{}
	for _, p := range payroll {
		if !seen[p.Period] {
			seen[p.Period] = true
			summary.Payroll.Periods = append(summary.Payroll.Periods, p.Period)
		}
		if period != "" && p.Period != period {
			continue
		}
		summary.Payroll.Records++
		summary.Payroll.Totals[p.Currency] = summary.Payroll.Totals[p.Currency].Add(p.Total)
	}

	partners, err := r.partners.List(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	summary.Partners = PartnerSummary{Total: len(partners), ByType: map[string]int{}}
	for _, p := range partners {
		summary.Partners.ByType[p.Type]++
	}

	items, err := r.inventory.List(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	summary.Inventory = InventorySummary{Items: len(items), Value: map[string]decimal.Decimal{}}
	for _, item := range items {
		summary.Inventory.Units += item.Quantity
		if item.Quantity == 0 {
			summary.Inventory.OutOfStock++
		}
		summary.Inventory.Value[item.Currency] = summary.Inventory.Value[item.Currency].Add(item.Value())
	}

	return summary, nil
}
