package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/bizledger/internal/i18n"
)

type localeRequest struct {
	Locale string `json:"locale" validate:"required"`
}

func (h *Handler) localeResponse(lang string) echo.Map {
	return echo.Map{
		"locale":    lang,
		"direction": i18n.Direction(lang),
		"languages": h.locales.Catalog().Languages(),
	}
}

// GetLocale returns the caller's language
func (h *Handler) GetLocale(c echo.Context) error {
	lang := h.locales.Current(c.Request().Context(), scope(c))
	return c.JSON(http.StatusOK, h.localeResponse(lang))
}

// SetLocale switches and saves the caller's language
func (h *Handler) SetLocale(c echo.Context) error {
	var req localeRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.respondError(c, err)
	}
	lang, err := h.locales.Set(c.Request().Context(), scope(c), req.Locale)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.localeResponse(lang))
}
