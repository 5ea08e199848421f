package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/bizledger/pkg/logger"
	"github.com/suteetoe/bizledger/pkg/middleware"
	"go.uber.org/zap"
)

// CurrentUser reloads the token's user and replaces the role and super
// admin flag of the claims with the stored ones. Removed or disabled users
// are rejected even while their token is still valid.
func (h *Handler) CurrentUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := middleware.Claims(c)
			if !ok {
				return next(c)
			}

			user, err := h.ctrl.Users.Current(c.Request().Context(), scope(c))
			if err != nil {
				logger.FromEcho(c).Warn("Token user rejected",
					zap.String("user_id", claims.UserID),
					zap.String("tenant_id", claims.TenantID),
					zap.Error(err))
				return h.respondError(c, err)
			}

			refreshed := *claims
			refreshed.Role = user.Role
			refreshed.SuperAdmin = user.IsSuperAdmin
			middleware.SetClaims(c, &refreshed)
			return next(c)
		}
	}
}
