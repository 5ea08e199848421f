package i18n

import (
	"context"

	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// Persister keeps the chosen language of a user
type Persister interface {
	LoadLocale(ctx context.Context, scope store.Scope) (string, error)
	SaveLocale(ctx context.Context, scope store.Scope, lang string) error
}

// Store resolves and persists the language of the calling user.
type Store struct {
	catalog   *Catalog
	persister Persister
}

// NewStore creates a locale store
func NewStore(catalog *Catalog, persister Persister) *Store {
	return &Store{catalog: catalog, persister: persister}
}

// Catalog returns the translation catalog
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Current returns the user's persisted language or the default
func (s *Store) Current(ctx context.Context, scope store.Scope) string {
	if s.persister == nil || scope.UserID == "" {
		return s.catalog.Default()
	}
	lang, err := s.persister.LoadLocale(ctx, scope)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to load user locale",
			zap.String("user_id", scope.UserID),
			zap.Error(err))
		return s.catalog.Default()
	}
	if !s.catalog.Has(lang) {
		return s.catalog.Default()
	}
	return lang
}

// Set validates and persists code for the user
func (s *Store) Set(ctx context.Context, scope store.Scope, code string) (string, error) {
	if !s.catalog.Has(code) {
		return "", errors.Wrapf(ErrUnsupportedLanguage, "%q", code)
	}
	if s.persister == nil {
		return code, nil
	}
	if err := s.persister.SaveLocale(ctx, scope, code); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Info("User locale changed",
		zap.String("user_id", scope.UserID),
		zap.String("locale", code))
	return code, nil
}

// Lookup translates key in the user's current language
func (s *Store) Lookup(ctx context.Context, scope store.Scope, key string, vars map[string]string) string {
	return s.catalog.T(s.Current(ctx, scope), key, vars)
}
