package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// CreateTenant bootstraps a tenant with its owner
func (h *Handler) CreateTenant(c echo.Context) error {
	var in controller.NewTenant
	if err := c.Bind(&in); err != nil {
		logger.FromEcho(c).Warn("Failed to parse tenant", zap.Error(err))
		return h.respondError(c, err)
	}
	ctx := c.Request().Context()
	tenant, owner, err := h.ctrl.Tenants.Bootstrap(ctx, scope(c), in)
	if err != nil {
		return h.respondError(c, err)
	}
	status, err := h.ctrl.Tenants.Status(ctx, tenant.ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"tenant": tenant,
		"owner":  owner.Public(),
		"status": status,
	})
}

type renewRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// RenewTenant extends a tenant's subscription
func (h *Handler) RenewTenant(c echo.Context) error {
	var req renewRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return h.respondError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.respondError(c, err)
	}
	tenant, status, err := h.ctrl.Tenants.Renew(c.Request().Context(), scope(c), c.Param("id"), req.Plan)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tenant": tenant, "status": status})
}

// TenantStatus reports a tenant's subscription status
func (h *Handler) TenantStatus(c echo.Context) error {
	status, err := h.ctrl.Tenants.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}
