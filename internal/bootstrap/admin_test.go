package bootstrap

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/store"
)

type fakeUsers struct {
	byLogin map[string]*model.User
}

func (u *fakeUsers) Create(ctx context.Context, in *model.User) (*model.User, error) {
	if _, exists := u.byLogin[in.Login]; exists {
		return nil, model.ErrConflict
	}
	u.byLogin[in.Login] = in
	return in, nil
}

func (u *fakeUsers) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	usr, ok := u.byLogin[login]
	if !ok {
		return nil, model.ErrNotFound
	}
	return usr, nil
}

func (u *fakeUsers) UpdatePassword(ctx context.Context, login, hash string) error { return nil }
func (u *fakeUsers) Delete(ctx context.Context, userID string) error             { return nil }

type fakeStore struct{ users *fakeUsers }

func (s *fakeStore) Users() store.Users { return s.users }
func (s *fakeStore) Lists() store.Lists { return nil }
func (s *fakeStore) Cidrs() store.Cidrs { return nil }
func (s *fakeStore) Queue() store.Queue { return nil }

func discardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestEnsureDefaultAdmin_NoopWhenUnset(t *testing.T) {
	s := &fakeStore{users: &fakeUsers{byLogin: map[string]*model.User{}}}
	if err := EnsureDefaultAdmin(context.Background(), s, "", "", discardLogger()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(s.users.byLogin) != 0 {
		t.Fatal("expected no user to be created")
	}
}

func TestEnsureDefaultAdmin_CreatesWhenAbsent(t *testing.T) {
	s := &fakeStore{users: &fakeUsers{byLogin: map[string]*model.User{}}}
	if err := EnsureDefaultAdmin(context.Background(), s, "admin", "super-secret-pw", discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, ok := s.users.byLogin["admin"]
	if !ok {
		t.Fatal("expected admin user to be created")
	}
	if created.Role != model.UserRoleSuperuser {
		t.Fatalf("expected superuser role, got %v", created.Role)
	}
}

func TestEnsureDefaultAdmin_NoopWhenAlreadyExists(t *testing.T) {
	existing := &model.User{Login: "admin", PasswordHash: "existing-hash", Role: model.UserRoleSuperuser}
	s := &fakeStore{users: &fakeUsers{byLogin: map[string]*model.User{"admin": existing}}}
	if err := EnsureDefaultAdmin(context.Background(), s, "admin", "super-secret-pw", discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.users.byLogin["admin"].PasswordHash != "existing-hash" {
		t.Fatal("expected existing admin to be left untouched")
	}
}
