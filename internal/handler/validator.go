package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/model"
)

// CustomValidator plugs the model validator into echo's c.Validate
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the validator to assign to echo.Echo.Validator
func NewValidator() echo.Validator {
	return &CustomValidator{validator: model.Validator()}
}

// Validate checks the validate struct tags of i
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return errors.Wrap(model.ErrValidation, err.Error())
	}
	return nil
}
