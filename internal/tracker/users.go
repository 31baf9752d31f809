package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Login authenticates username (case-insensitive) with password. Unknown
// users and wrong passwords both return ErrInvalidCredentials; a correct
// password on an inactive account returns ErrUserInactive.
func (s *Service) Login(ctx context.Context, username, password string) (types.AuthUser, error) {
	if username == "" || password == "" {
		return types.AuthUser{}, fmt.Errorf("%w: username and password are required", types.ErrInvalidArgument)
	}
	if _, err := s.Bootstrap(ctx); err != nil {
		return types.AuthUser{}, err
	}

	u, ok, err := s.findUser(ctx, username)
	if err != nil {
		return types.AuthUser{}, err
	}
	if !ok || u.PasswordHash == "" || !s.hasher.Verify(password, u.PasswordHash) {
		s.logger.Info("login rejected", "username", username)
		return types.AuthUser{}, types.ErrInvalidCredentials
	}
	if !u.IsActive {
		return types.AuthUser{}, fmt.Errorf("%w: %s", types.ErrUserInactive, u.Username)
	}
	return u.Public(), nil
}

// ChangePassword replaces the password of userID after checking current.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", types.ErrInvalidArgument)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}

	_, err = s.users.Mutate(ctx, userID, func(u types.User) (types.User, error) {
		if !s.hasher.Verify(current, u.PasswordHash) {
			return u, types.ErrInvalidCredentials
		}
		u.PasswordHash = hash
		return u, nil
	})
	return err
}

// ListUsers returns every account without password hashes, seeding the
// defaults first if needed.
func (s *Service) ListUsers(ctx context.Context) ([]types.AuthUser, error) {
	if _, err := s.Bootstrap(ctx); err != nil {
		return nil, err
	}
	page, err := s.users.List(ctx)
	out := make([]types.AuthUser, 0, len(page.Items))
	for _, u := range page.Items {
		out = append(out, u.Public())
	}
	return out, err
}

// GetUser returns one account without its password hash.
func (s *Service) GetUser(ctx context.Context, id string) (types.AuthUser, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return types.AuthUser{}, err
	}
	return u.Public(), nil
}

// NewUser is the input of CreateUser. IsActive defaults to true.
type NewUser struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     types.Role `json:"role"`
	IsActive *bool      `json:"isActive,omitempty"`
}

// CreateUser adds an account. Usernames are unique regardless of case.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (types.AuthUser, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return types.AuthUser{}, fmt.Errorf("%w: username and password are required", types.ErrInvalidArgument)
	}
	if !in.Role.Valid() {
		return types.AuthUser{}, fmt.Errorf("%w: unknown role %q", types.ErrInvalidArgument, in.Role)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.AuthUser{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	unlock, err := s.store.Lock(ctx, usernamesLock)
	if err != nil {
		return types.AuthUser{}, err
	}
	defer unlock()

	if _, taken, err := s.findUser(ctx, in.Username); err != nil {
		return types.AuthUser{}, err
	} else if taken {
		return types.AuthUser{}, fmt.Errorf("%w: username %s", types.ErrConflict, in.Username)
	}

	u, err := s.users.Create(ctx, types.User{
		Username:     in.Username,
		Role:         in.Role,
		IsActive:     active,
		PasswordHash: hash,
	})
	if err != nil {
		return types.AuthUser{}, err
	}
	s.logger.Info("user created", "id", u.ID, "username", u.Username, "role", u.Role)
	return u.Public(), nil
}

// UserUpdate names the fields UpdateUser changes; nil fields are kept.
type UserUpdate struct {
	Role     *types.Role `json:"role,omitempty"`
	IsActive *bool       `json:"isActive,omitempty"`
	Password *string     `json:"password,omitempty"`
}

// UpdateUser changes role, status, or password of id. The super admin can
// be neither deactivated nor demoted.
func (s *Service) UpdateUser(ctx context.Context, id string, in UserUpdate) (types.AuthUser, error) {
	if in.Role != nil && !in.Role.Valid() {
		return types.AuthUser{}, fmt.Errorf("%w: unknown role %q", types.ErrInvalidArgument, *in.Role)
	}
	var hash string
	if in.Password != nil && *in.Password != "" {
		var err error
		if hash, err = s.hasher.Hash(*in.Password); err != nil {
			return types.AuthUser{}, err
		}
	}

	u, err := s.users.Mutate(ctx, id, func(u types.User) (types.User, error) {
		if u.IsSuperAdmin() {
			if (in.IsActive != nil && !*in.IsActive) || (in.Role != nil && *in.Role != types.RoleL3) {
				return u, fmt.Errorf("%w: cannot change status or role of %s", types.ErrProtected, u.Username)
			}
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.IsActive != nil {
			u.IsActive = *in.IsActive
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		return u, nil
	})
	if err != nil {
		return types.AuthUser{}, err
	}
	return u.Public(), nil
}

// DeleteUser removes an account. The super admin cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.IsSuperAdmin() {
		return fmt.Errorf("%w: cannot delete %s", types.ErrProtected, u.Username)
	}
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: user/%s", types.ErrNotFound, id)
	}
	s.logger.Info("user deleted", "id", id, "username", u.Username)
	return nil
}

func (s *Service) findUser(ctx context.Context, username string) (types.User, bool, error) {
	page, err := s.users.List(ctx)
	if err != nil && !errors.Is(err, types.ErrIntegrityFault) {
		return types.User{}, false, err
	}
	for _, u := range page.Items {
		if strings.EqualFold(u.Username, username) {
			return u, true, nil
		}
	}
	return types.User{}, false, nil
}
