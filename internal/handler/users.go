package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// ListUsers returns the tenant's users without password hashes
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.ctrl.Users.Load(c.Request().Context(), scope(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": model.PublicUsers(users)})
}

func (h *Handler) CreateUser(c echo.Context) error {
	var in controller.NewUser
	if err := c.Bind(&in); err != nil {
		logger.FromEcho(c).Warn("Failed to parse user", zap.Error(err))
		return h.respondError(c, err)
	}
	created, users, err := h.ctrl.Users.Create(c.Request().Context(), scope(c), in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"data":  created.Public(),
		"items": model.PublicUsers(users),
	})
}

func (h *Handler) UpdateUser(c echo.Context) error {
	patch, err := bindPatch(c)
	if err != nil {
		return h.respondError(c, err)
	}
	updated, users, err := h.ctrl.Users.Update(c.Request().Context(), scope(c), c.Param("id"), patch)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":  updated.Public(),
		"items": model.PublicUsers(users),
	})
}

func (h *Handler) DeleteUser(c echo.Context) error {
	confirm := queryConfirmer(c)
	users, err := h.ctrl.Users.Delete(c.Request().Context(), scope(c), c.Param("id"), confirm)
	if err != nil {
		return h.respondErrorWith(c, err, confirm.extra())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": model.PublicUsers(users)})
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePassword replaces the caller's own password
func (h *Handler) ChangePassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.respondError(c, err)
	}
	if err := h.ctrl.Users.ChangePassword(c.Request().Context(), scope(c), req.CurrentPassword, req.NewPassword); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}
