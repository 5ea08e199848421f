package model

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PayrollRecord is one employee's pay for a period. Records are append-only.
type PayrollRecord struct {
	Base
	Period       string          `json:"period" validate:"required,datetime=2006-01"`
	EmployeeID   string          `json:"employee_id,omitempty"`
	EmployeeName string          `json:"employee_name" validate:"required"`
	BaseSalary   decimal.Decimal `json:"base_salary"`
	Allowances   decimal.Decimal `json:"allowances"`
	Deductions   decimal.Decimal `json:"deductions"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency" validate:"required,len=3,uppercase"`
}

// ComputeTotal sets Total to base + allowances - deductions
func (p *PayrollRecord) ComputeTotal() {
	p.Total = p.BaseSalary.Add(p.Allowances).Sub(p.Deductions)
}

// Check enforces rules the validator tags cannot express
func (p PayrollRecord) Check() error {
	switch {
	case p.BaseSalary.IsNegative():
		return errors.New("base_salary: must not be negative")
	case p.Allowances.IsNegative():
		return errors.New("allowances: must not be negative")
	case p.Deductions.IsNegative():
		return errors.New("deductions: must not be negative")
	}
	return nil
}
