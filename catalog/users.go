package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scriptshelf/scriptshelf/catalog/internal/store"
)

// ErrBadCredentials is returned by Authenticate for an unknown username or
// a wrong password.
var ErrBadCredentials = store.ErrBadCredentials

// UserInfo is the public view of an operator account.
type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Authenticate verifies a username/password pair against the users table.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*UserInfo, error) {
	u, err := s.store.Authenticate(ctx, username, password)
	if err != nil {
		if !errors.Is(err, store.ErrBadCredentials) {
			return nil, err
		}
		return nil, ErrBadCredentials
	}
	return &UserInfo{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// EnsureAdmin creates the admin account if it does not exist yet. An
// existing account is left untouched, including its password.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil
	}
	u, err := s.store.CreateUser(ctx, username, password, "admin")
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	slog.Info("admin user seeded", "username", username, "id", u.ID)
	s.audit.Log(ctx, "Admin user seeded", username)
	return nil
}
