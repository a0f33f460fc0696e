// Package bootstrap performs one-time startup tasks that depend on both
// configuration and the store, namely provisioning the default superuser
// account. Ported from the reference create_default_admin_user.
package bootstrap

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/cidrfence/cidrfence/internal/auth"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/store"
)

// EnsureDefaultAdmin creates a SUPERUSER account from login/password when
// both are non-empty and no user with that login already exists. It is a
// no-op (not an error) when either is unset, or when the login is already
// taken.
func EnsureDefaultAdmin(ctx context.Context, s store.Store, login, password string, log zerolog.Logger) error {
	if login == "" || password == "" {
		return nil
	}

	if _, err := s.Users().GetByLogin(ctx, login); err == nil {
		log.Debug().Str("login", login).Msg("default admin user already exists")
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.Users().Create(ctx, &model.User{
		Login:        login,
		PasswordHash: hash,
		Role:         model.UserRoleSuperuser,
	}); err != nil {
		if errors.Is(err, model.ErrConflict) {
			log.Debug().Str("login", login).Msg("default admin user already exists")
			return nil
		}
		return err
	}
	log.Info().Str("login", login).Msg("created default admin user")
	return nil
}
