package model

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Collections used by the application.
const (
	CollectionTenants   = "tenants"
	CollectionUsers     = "users"
	CollectionEmployees = "employees"
	CollectionPartners  = "partners"
	CollectionPayroll   = "payroll"
	CollectionInventory = "inventory"
)

// ErrValidation is returned when a model fails its validation rules
var ErrValidation = errors.New("validation failed")

// Base holds the fields the record store manages for every model
type Base struct {
	ID        string     `json:"id,omitempty"`
	TenantID  string     `json:"tenant_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// GetID returns the record id
func (b Base) GetID() string {
	return b.ID
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator returns the shared validator instance
func Validator() *validator.Validate {
	return validate
}

// Validate runs the struct validation rules and the model's own checks.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return errors.Wrap(ErrValidation, describe(fieldErrs))
		}
		return errors.Wrap(ErrValidation, err.Error())
	}
	if c, ok := v.(interface{ Check() error }); ok {
		if err := c.Check(); err != nil {
			return errors.Wrap(ErrValidation, err.Error())
		}
	}
	return nil
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
