package controller

import (
	"context"

	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
)

// Payroll records are appended and deleted, never edited
type Payroll struct {
	*Resource[model.PayrollRecord]
	employees *store.Collection[model.Employee]
}

// NewPayroll creates the payroll controller
func NewPayroll(s *store.Store) *Payroll {
	p := &Payroll{employees: store.NewCollection[model.Employee](s, model.CollectionEmployees)}
	p.Resource = NewResource(s, model.CollectionPayroll, "payroll record", Hooks[model.PayrollRecord]{
		Describe: func(rec model.PayrollRecord) string {
			return rec.EmployeeName + " " + rec.Period
		},
		Prepare:     p.prepare,
		CheckCreate: checkPayrollPeriod,
		ReadOnly:    true,
	})
	return p
}

// prepare fills employee details and the total
func (p *Payroll) prepare(ctx context.Context, scope store.Scope, rec *model.PayrollRecord) error {
	if rec.EmployeeID != "" {
		emp, err := p.employees.Find(ctx, scope, rec.EmployeeID)
		if errors.Is(err, store.ErrNotFound) {
			return errors.Wrap(model.ErrValidation, "employee_id: unknown employee")
		}
		if err != nil {
			return err
		}
		if rec.EmployeeName == "" {
			rec.EmployeeName = emp.Name
		}
		if rec.Currency == "" {
			rec.Currency = emp.Currency
		}
		if rec.BaseSalary.IsZero() {
			rec.BaseSalary = emp.Salary
		}
	}
	rec.ComputeTotal()
	return nil
}

// checkPayrollPeriod allows one record per employee and period
func checkPayrollPeriod(_ context.Context, _ store.Scope, rec model.PayrollRecord, existing []model.PayrollRecord) error {
	if rec.EmployeeID == "" {
		return nil
	}
	for _, other := range existing {
		if other.EmployeeID == rec.EmployeeID && other.Period == rec.Period {
			return errors.Wrapf(ErrConflict, "payroll for %s in %s", rec.EmployeeName, rec.Period)
		}
	}
	return nil
}
