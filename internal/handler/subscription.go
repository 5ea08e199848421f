package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/internal/subscription"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// tenantStatus returns the caller's subscription status, or nil when the
// tenant has no tenant record.
func (h *Handler) tenantStatus(c echo.Context) (*subscription.Status, error) {
	status, err := h.ctrl.Tenants.Status(c.Request().Context(), scope(c).TenantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Banner returns the subscription banner for the caller
func (h *Handler) Banner(c echo.Context) error {
	status, err := h.tenantStatus(c)
	if err != nil {
		return h.respondError(c, err)
	}
	banner := h.gate.Banner(c.Request().Context(), status, viewer(c), h.lang(c))
	return c.JSON(http.StatusOK, echo.Map{
		"banner": banner,
		"status": status,
	})
}

// Paths that stay writable after the subscription expires
var guardExempt = map[string]bool{
	"/api/locale":            true,
	"/api/users/me/password": true,
}

// SubscriptionGuard blocks writes of tenants whose subscription has expired.
// Reads stay available and super admins are never blocked.
func (h *Handler) SubscriptionGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			v := viewer(c)
			if v.SuperAdmin || guardExempt[c.Path()] {
				return next(c)
			}

			status, err := h.tenantStatus(c)
			if err != nil {
				return h.respondError(c, err)
			}
			if h.gate.Evaluate(status, v) != subscription.StateExpired {
				return next(c)
			}

			logger.FromEcho(c).Warn("Write blocked by expired subscription",
				zap.String("tenant_id", status.TenantID),
				zap.String("path", c.Path()))
			banner := h.gate.Banner(c.Request().Context(), status, v, h.lang(c))
			return c.JSON(http.StatusPaymentRequired, echo.Map{
				"error":  h.translate(c, msgSubscriptionExpired, nil),
				"code":   msgSubscriptionExpired,
				"banner": banner,
			})
		}
	}
}
