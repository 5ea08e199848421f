package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/internal/i18n"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/internal/subscription"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// Translation keys of error messages
const (
	msgValidation           = "errors.validation"
	msgUnauthorized         = "errors.unauthorized"
	msgInvalidCredentials   = "errors.invalid_credentials"
	msgForbidden            = "errors.forbidden"
	msgSelfDelete           = "errors.self_delete"
	msgSubscriptionExpired  = "errors.subscription_expired"
	msgNotFound             = "errors.not_found"
	msgConflict             = "errors.conflict"
	msgConfirmationRequired = "errors.confirmation_required"
	msgUpdateNotAllowed     = "errors.update_not_allowed"
	msgUnavailable          = "errors.unavailable"
	msgInternal             = "errors.internal"
)

var errorStatus = []struct {
	err    error
	status int
	key    string
}{
	{model.ErrValidation, http.StatusBadRequest, msgValidation},
	{store.ErrInvalidRecord, http.StatusBadRequest, msgValidation},
	{store.ErrImmutableField, http.StatusBadRequest, msgValidation},
	{subscription.ErrUnknownPlan, http.StatusBadRequest, msgValidation},
	{i18n.ErrUnsupportedLanguage, http.StatusBadRequest, msgValidation},
	{controller.ErrInvalidCredentials, http.StatusUnauthorized, msgInvalidCredentials},
	{controller.ErrSessionRevoked, http.StatusUnauthorized, msgUnauthorized},
	{controller.ErrAccountDisabled, http.StatusForbidden, msgForbidden},
	{controller.ErrSelfDelete, http.StatusForbidden, msgSelfDelete},
	{store.ErrTenantRequired, http.StatusForbidden, msgForbidden},
	{store.ErrTenantMismatch, http.StatusForbidden, msgForbidden},
	{store.ErrNotFound, http.StatusNotFound, msgNotFound},
	{controller.ErrUpdateNotAllowed, http.StatusMethodNotAllowed, msgUpdateNotAllowed},
	{controller.ErrConflict, http.StatusConflict, msgConflict},
	{store.ErrDuplicateID, http.StatusConflict, msgConflict},
	{controller.ErrNotConfirmed, http.StatusPreconditionRequired, msgConfirmationRequired},
	{store.ErrUnavailable, http.StatusServiceUnavailable, msgUnavailable},
	{store.ErrInvalidCollection, http.StatusInternalServerError, msgInternal},
}

// statusOf maps an error to its HTTP status and message key
func statusOf(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.key
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return http.StatusBadRequest, msgValidation
	}
	if store.IsTransient(err) {
		return http.StatusServiceUnavailable, msgUnavailable
	}
	return http.StatusInternalServerError, msgInternal
}

// respondError writes err as a localized JSON error
func (h *Handler) respondError(c echo.Context, err error) error {
	return h.respondErrorWith(c, err, nil)
}

func (h *Handler) respondErrorWith(c echo.Context, err error, extra echo.Map) error {
	log := logger.FromEcho(c)
	status, key := statusOf(err)

	body := echo.Map{
		"error": h.translate(c, key, nil),
		"code":  key,
	}
	if status < http.StatusInternalServerError {
		body["detail"] = err.Error()
		log.Warn("Request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		log.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}
