package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
	"github.com/iliyamo/special-academy-api/internal/utils"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("user already exists")
	ErrAdminSignupDisabled = errors.New("admin registration is disabled")
	ErrRefreshRevoked      = errors.New("refresh token revoked")
	ErrBlankName           = errors.New("full name cannot be empty")
	ErrUnknownRole         = errors.New("unknown role")
)

// dummyHash keeps Login timing similar whether or not the email exists.
var dummyHash, _ = utils.HashPassword("not-a-real-password", 10)

// Session is the result of a successful register, login or refresh.
type Session struct {
	User    *model.User
	Access  IssuedToken
	Refresh IssuedToken
}

// UserInput carries the fields for creating an account.
type UserInput struct {
	ID       string
	FullName string
	Email    string
	Password string
	Role     string
}

// UserPatch carries optional profile changes. Nil fields are left as stored.
type UserPatch struct {
	FullName *string
	Email    *string
	Password *string
	Role     *string
}

// AuthService implements the credential flows over a UserRepository.
type AuthService struct {
	users            repository.UserRepository
	tokens           *TokenService
	bcryptCost       int
	allowAdminSignup bool
}

func NewAuthService(users repository.UserRepository, tokens *TokenService, bcryptCost int, allowAdminSignup bool) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost, allowAdminSignup: allowAdminSignup}
}

// Register creates a user and logs them in. The admin role is only granted
// when admin signup is enabled.
func (s *AuthService) Register(ctx context.Context, in UserInput) (*Session, error) {
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if in.Role == model.RoleAdmin && !s.allowAdminSignup {
		return nil, ErrAdminSignupDisabled
	}
	u, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, u)
}

// Login verifies the password and rotates the refresh-token slot.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, u)
}

// Refresh exchanges a live refresh token for a new pair. The swap is
// conditional on the slot still holding the presented token, so replaying
// a rotated token fails even under concurrency.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	claims, err := s.tokens.VerifyRefreshToken(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshRevoked
		}
		return nil, err
	}
	presented := utils.HashToken(strings.TrimSpace(raw))
	if !utils.EqualHash(u.RefreshTokenHash, presented) {
		return nil, ErrRefreshRevoked
	}

	sess, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.SwapRefreshToken(ctx, u.ID, presented, utils.HashToken(sess.Refresh.Token)); err != nil {
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshRevoked
		}
		return nil, err
	}
	return sess, nil
}

// Logout empties the refresh-token slot of userID.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.SetRefreshToken(ctx, userID, "")
}

// CreateUser hashes the password and stores the account without issuing tokens.
func (s *AuthService) CreateUser(ctx context.Context, in UserInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !model.ValidRole(in.Role) {
		return nil, ErrUnknownRole
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, ErrBlankName
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           strings.TrimSpace(in.ID),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// UpdateUser applies patch to the stored user. A password or role change
// also revokes the refresh token so the old session cannot outlive it.
func (s *AuthService) UpdateUser(ctx context.Context, id string, patch UserPatch) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	revoke := false
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if name == "" {
			return nil, ErrBlankName
		}
		u.FullName = name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil && !model.ValidRole(*patch.Role) {
		return nil, ErrUnknownRole
	}
	if patch.Role != nil && *patch.Role != u.Role {
		u.Role = *patch.Role
		revoke = true
	}
	if patch.Password != nil {
		hash, err := utils.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		revoke = true
	}
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if revoke {
		if err := s.users.SetRefreshToken(ctx, u.ID, ""); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// SeedAdmin makes sure an administrator with email exists. It reports
// whether a new account was created; an existing one is left untouched.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password, fullName string) (*model.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	u, err := s.CreateUser(ctx, UserInput{FullName: fullName, Email: email, Password: password, Role: model.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// startSession issues a pair and overwrites the slot with the new refresh hash.
func (s *AuthService) startSession(ctx context.Context, u *model.User) (*Session, error) {
	sess, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, utils.HashToken(sess.Refresh.Token)); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) issue(u *model.User) (*Session, error) {
	access, err := s.tokens.IssueAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Access: access, Refresh: refresh}, nil
}
