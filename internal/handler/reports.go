package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/model"
)

const defaultAuditLimit = 50

// Summary returns the tenant's aggregate report
func (h *Handler) Summary(c echo.Context) error {
	summary, err := h.ctrl.Reports.Summary(c.Request().Context(), scope(c), c.QueryParam("period"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// AuditLogs returns the newest audit entries of the tenant
func (h *Handler) AuditLogs(c echo.Context) error {
	limit := defaultAuditLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return h.respondError(c, errors.Wrap(model.ErrValidation, "limit: expected a non-negative number"))
		}
		limit = n
	}
	entries, err := h.ctrl.Store.Audit(c.Request().Context(), scope(c), limit)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNil(entries)})
}

type adjustRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdjustInventory moves the stock of an item up or down
func (h *Handler) AdjustInventory(c echo.Context) error {
	var req adjustRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return h.respondError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.respondError(c, err)
	}
	item, items, err := h.ctrl.Inventory.Adjust(c.Request().Context(), scope(c), c.Param("id"), req.Delta)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": item, "items": nonNil(items)})
}
