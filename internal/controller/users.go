package controller

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// NewUser is the input for creating a user
type NewUser struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=owner admin accountant hr viewer"`
	Locale   string `json:"locale,omitempty"`
}

// Users manages the users of a tenant
type Users struct {
	*Resource[model.User]
	cost int
}

// NewUsers creates the users controller. cost is the bcrypt cost.
func NewUsers(s *store.Store, cost int) *Users {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	u := &Users{cost: cost}
	u.Resource = NewResource(s, model.CollectionUsers, "user", Hooks[model.User]{
		Describe: func(user model.User) string { return user.Email },
		Prepare: func(_ context.Context, _ store.Scope, user *model.User) error {
			user.Email = normalizeEmail(user.Email)
			return nil
		},
		CheckCreate: func(_ context.Context, _ store.Scope, user model.User, existing []model.User) error {
			return uniqueEmail(user, existing)
		},
		CheckUpdate: func(_ context.Context, _ store.Scope, _, next model.User, existing []model.User) error {
			return uniqueEmail(next, existing)
		},
		CheckDelete: func(_ context.Context, scope store.Scope, user model.User) error {
			if user.ID == scope.UserID {
				return ErrSelfDelete
			}
			return nil
		},
	})
	return u
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func uniqueEmail(user model.User, existing []model.User) error {
	for _, other := range existing {
		if other.ID != user.ID && normalizeEmail(other.Email) == user.Email {
			return errors.Wrapf(ErrConflict, "email %s", user.Email)
		}
	}
	return nil
}

func (u *Users) hash(password string) (string, error) {
	if len(password) < 8 || len(password) > 72 {
		return "", errors.Wrap(model.ErrValidation, "password: length must be 8 to 72")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

// Create hashes the password and stores a new active user
func (u *Users) Create(ctx context.Context, scope store.Scope, in NewUser) (model.User, []model.User, error) {
	if err := model.Validate(in); err != nil {
		return model.User{}, nil, err
	}
	hashed, err := u.hash(in.Password)
	if err != nil {
		return model.User{}, nil, err
	}
	return u.Resource.Create(ctx, scope, model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         in.Role,
		Locale:       in.Locale,
		IsActive:     true,
	})
}

// Update applies patch to a user. A "password" field is hashed; the stored
// hash and the super admin flag cannot be patched directly.
func (u *Users) Update(ctx context.Context, scope store.Scope, id string, patch store.Record) (model.User, []model.User, error) {
	changes := store.Record{}
	for k, v := range patch {
		changes[k] = v
	}
	delete(changes, "password_hash")
	if !scope.SuperAdmin {
		delete(changes, "is_super_admin")
	}

	if raw, ok := changes["password"]; ok {
		password, _ := raw.(string)
		hashed, err := u.hash(password)
		if err != nil {
			return model.User{}, nil, err
		}
		changes["password_hash"] = hashed
		delete(changes, "password")
	}
	return u.Resource.Update(ctx, scope, id, changes)
}

// ChangePassword replaces the calling user's password after checking the current one
func (u *Users) ChangePassword(ctx context.Context, scope store.Scope, current, next string) error {
	log := logger.FromContext(ctx)

	user, err := u.Find(ctx, scope, scope.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		log.Warn("Password change rejected", zap.String("user_id", scope.UserID))
		return ErrInvalidCredentials
	}
	hashed, err := u.hash(next)
	if err != nil {
		return err
	}
	if _, err := u.items.Update(ctx, scope, scope.UserID, store.Record{"password_hash": hashed}); err != nil {
		return err
	}

	log.Info("Password changed", zap.String("user_id", scope.UserID))
	u.audit(ctx, scope, ActionPasswordChange, "Changed password of user "+user.Email)
	return nil
}

// Authenticate checks email and password within tenantID
func (u *Users) Authenticate(ctx context.Context, tenantID, email, password string) (model.User, error) {
	users, err := u.Load(ctx, store.Scope{TenantID: tenantID})
	if err != nil {
		return model.User{}, err
	}

	email = normalizeEmail(email)
	for _, user := range users {
		if normalizeEmail(user.Email) != email {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return model.User{}, ErrInvalidCredentials
		}
		if !user.IsActive {
			return model.User{}, ErrAccountDisabled
		}
		return user, nil
	}
	return model.User{}, ErrInvalidCredentials
}

// Current loads the calling user. A removed user yields ErrSessionRevoked,
// a disabled one ErrAccountDisabled.
func (u *Users) Current(ctx context.Context, scope store.Scope) (model.User, error) {
	user, err := u.Find(ctx, scope, scope.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrSessionRevoked
	}
	if err != nil {
		return model.User{}, err
	}
	if !user.IsActive {
		return model.User{}, ErrAccountDisabled
	}
	return user, nil
}

// LoadLocale returns the saved language of the calling user
func (u *Users) LoadLocale(ctx context.Context, scope store.Scope) (string, error) {
	user, err := u.Find(ctx, scope, scope.UserID)
	if err != nil {
		return "", err
	}
	return user.Locale, nil
}

// SaveLocale stores the language of the calling user
func (u *Users) SaveLocale(ctx context.Context, scope store.Scope, lang string) error {
	_, err := u.items.Update(ctx, scope, scope.UserID, store.Record{"locale": lang})
	return err
}
