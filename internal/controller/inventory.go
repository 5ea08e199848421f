package controller

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
)

// Inventory manages stock items. SKUs are unique per tenant.
type Inventory struct {
	*Resource[model.InventoryItem]
}

// NewInventory creates the inventory controller
func NewInventory(s *store.Store) *Inventory {
	return &Inventory{
		Resource: NewResource(s, model.CollectionInventory, "inventory item", Hooks[model.InventoryItem]{
			Describe: func(item model.InventoryItem) string {
				return item.Name + " (" + item.SKU + ")"
			},
			Prepare: func(_ context.Context, _ store.Scope, item *model.InventoryItem) error {
				item.SKU = strings.ToUpper(strings.TrimSpace(item.SKU))
				return nil
			},
			CheckCreate: func(_ context.Context, _ store.Scope, item model.InventoryItem, existing []model.InventoryItem) error {
				return uniqueSKU(item, existing)
			},
			CheckUpdate: func(_ context.Context, _ store.Scope, _, next model.InventoryItem, existing []model.InventoryItem) error {
				return uniqueSKU(next, existing)
			},
		}),
	}
}

func uniqueSKU(item model.InventoryItem, existing []model.InventoryItem) error {
	for _, other := range existing {
		if other.ID != item.ID && strings.EqualFold(other.SKU, item.SKU) {
			return errors.Wrapf(ErrConflict, "sku %s", item.SKU)
		}
	}
	return nil
}

// Adjust moves the quantity of an item by delta. Stock cannot go below zero.
func (inv *Inventory) Adjust(ctx context.Context, scope store.Scope, id string, delta int) (model.InventoryItem, []model.InventoryItem, error) {
	item, err := inv.Find(ctx, scope, id)
	if err != nil {
		return model.InventoryItem{}, nil, err
	}
	quantity := item.Quantity + delta
	if quantity < 0 {
		return model.InventoryItem{}, nil, errors.Wrapf(model.ErrValidation,
			"quantity: only %d in stock", item.Quantity)
	}
	return inv.Update(ctx, scope, id, store.Record{"quantity": quantity})
}
