package model

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Employee statuses
const (
	EmployeeActive   = "Active"
	EmployeeInactive = "Inactive"
	EmployeeOnLeave  = "OnLeave"
)

// Employee is a person on the tenant's payroll
type Employee struct {
	Base
	Name     string          `json:"name" validate:"required,max=100"`
	Position string          `json:"position" validate:"max=100"`
	Salary   decimal.Decimal `json:"salary"`
	Currency string          `json:"currency" validate:"required,len=3,uppercase"`
	Status   string          `json:"status" validate:"required,oneof=Active Inactive OnLeave"`
	HiredAt  *time.Time      `json:"hired_at,omitempty"`
}

// Check enforces rules the validator tags cannot express
func (e Employee) Check() error {
	if e.Salary.IsNegative() {
		return errors.New("salary: must not be negative")
	}
	return nil
}
