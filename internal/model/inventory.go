package model

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// InventoryItem is a stock keeping unit held by the tenant
type InventoryItem struct {
	Base
	Name      string          `json:"name" validate:"required,max=100"`
	SKU       string          `json:"sku" validate:"required,max=64"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency" validate:"required,len=3,uppercase"`
	Category  string          `json:"category,omitempty"`
}

// Value returns quantity times unit price
func (i InventoryItem) Value() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Check enforces rules the validator tags cannot express
func (i InventoryItem) Check() error {
	if i.UnitPrice.IsNegative() {
		return errors.New("unit_price: must not be negative")
	}
	return nil
}
