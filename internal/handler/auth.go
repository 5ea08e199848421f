package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/internal/i18n"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/internal/subscription"
	"github.com/suteetoe/bizledger/pkg/jwtutil"
	"github.com/suteetoe/bizledger/pkg/logger"
	"github.com/suteetoe/bizledger/prometheus"
	"go.uber.org/zap"
)

type loginRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a tenant user and returns a token with the subscription banner
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordLogin("invalid_request")
		return h.respondError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		prometheus.RecordLogin("invalid_request")
		return h.respondError(c, err)
	}

	tenant, err := h.ctrl.Tenants.Get(ctx, req.TenantID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("Login to unknown tenant", zap.String("tenant_id", req.TenantID))
		prometheus.RecordLogin("failure")
		return h.respondError(c, controller.ErrInvalidCredentials)
	}
	if err != nil {
		prometheus.RecordLogin("error")
		return h.respondError(c, err)
	}

	user, err := h.ctrl.Users.Authenticate(ctx, req.TenantID, req.Email, req.Password)
	if err != nil {
		log.Warn("Login rejected",
			zap.String("tenant_id", req.TenantID),
			zap.String("email", req.Email),
			zap.Error(err))
		prometheus.RecordLogin("failure")
		return h.respondError(c, err)
	}

	catalog := h.locales.Catalog()
	lang := user.Locale
	if !catalog.Has(lang) {
		lang = catalog.Match(c.Request().Header.Get(headerAcceptLanguage))
	}

	token, err := h.jwt.GenerateToken(jwtutil.UserClaims{
		Email:      user.Email,
		UserID:     user.ID,
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		Role:       user.Role,
		SuperAdmin: user.IsSuperAdmin,
		Locale:     lang,
	})
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordLogin("error")
		return h.respondError(c, err)
	}

	status, err := h.ctrl.Tenants.Status(ctx, tenant.ID)
	if err != nil {
		prometheus.RecordLogin("error")
		return h.respondError(c, err)
	}
	banner := h.gate.Banner(ctx, &status, subscription.Viewer{UserID: user.ID, SuperAdmin: user.IsSuperAdmin}, lang)

	prometheus.RecordLogin("success")
	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("tenant_id", tenant.ID),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user.Public(),
		"tenant": echo.Map{
			"id":   tenant.ID,
			"name": tenant.Name,
		},
		"locale":    lang,
		"direction": i18n.Direction(lang),
		"banner":    banner,
	})
}
