package controller

import "github.com/pkg/errors"

// Controller errors. Validation failures use model.ErrValidation and store
// failures keep their store sentinel.
var (
	ErrNotConfirmed       = errors.New("action was not confirmed")
	ErrUpdateNotAllowed   = errors.New("records of this kind cannot be updated")
	ErrSelfDelete         = errors.New("users cannot delete their own account")
	ErrConflict           = errors.New("a record with the same value already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrSessionRevoked     = errors.New("the signed in user no longer exists")
)

// Audit actions
const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionPasswordChange = "password.change"
	ActionTenantCreate   = "tenant.create"
	ActionRenew          = "subscription.renew"
)
