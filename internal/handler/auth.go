package handler

import (
	"errors"   // matches service sentinels
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // token expiries and store timeout

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/special-academy-api/internal/activity"   // audit trail for login/logout
	"github.com/iliyamo/special-academy-api/internal/middleware" // identity set by the auth guard
	"github.com/iliyamo/special-academy-api/internal/model"      // roles and audit actions
	"github.com/iliyamo/special-academy-api/internal/repository" // ErrNotFound on logout
	"github.com/iliyamo/special-academy-api/internal/service"    // credential flows
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth     *service.AuthService
	Activity *activity.Logger
	Timeout  time.Duration
	Log      *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, act *activity.Logger, timeout time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Activity: act, Timeout: storeTimeout(timeout), Log: log}
}

// ----- DTOs -----

// RegisterRequest is also used by admins creating users.
type RegisterRequest struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"` // admin | user
}

func (RegisterRequest) Messages() map[string]string {
	return map[string]string{
		"fullName": "Full name is required",
		"email":    "Please provide a valid email",
		"password": "Password must be at least 6 characters long",
		"role":     "Role must be either 'admin' or 'user'",
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (LoginRequest) Messages() map[string]string {
	return map[string]string{
		"email":    "Please provide a valid email",
		"password": "Password is required",
	}
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (RefreshRequest) Messages() map[string]string {
	return map[string]string{"refreshToken": "Refresh token is required"}
}

type logoutReq struct {
	UserID string `json:"userId"`
}

type tokenPair struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// authResp is flat: user fields next to the pair. token repeats the access
// token for older clients.
type authResp struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Token    string `json:"token"`
	tokenPair
}

func pairOf(s *service.Session) tokenPair {
	return tokenPair{
		AccessToken:           s.Access.Token,
		RefreshToken:          s.Refresh.Token,
		AccessTokenExpiresAt:  s.Access.ExpiresAt,
		RefreshTokenExpiresAt: s.Refresh.ExpiresAt,
	}
}

func sessionResp(s *service.Session) authResp {
	return authResp{
		ID:        s.User.ID,
		FullName:  s.User.FullName,
		Email:     s.User.Email,
		Role:      s.User.Role,
		Token:     s.Access.Token,
		tokenPair: pairOf(s),
	}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	req := middleware.Validated[RegisterRequest](c)

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	sess, err := h.Auth.Register(ctx, service.UserInput{
		ID:       req.ID,
		FullName: req.FullName,
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Role:     req.Role,
	})
	if fields := userInputErrors(err); fields != nil {
		return middleware.ValidationFailed(c, fields)
	}
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return message(c, http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrAdminSignupDisabled):
		return message(c, http.StatusForbidden, "Admin registration is disabled")
	case err != nil:
		return storeFailed(c, h.Log, "register", err)
	}

	h.Activity.Log(c, sess.User.ID, model.ActionCreate, model.EntityUser, sess.User.ID)
	return c.JSON(http.StatusCreated, sessionResp(sess))
}

// Login: verify and return new pair. The previous refresh token stops working.
func (h *AuthHandler) Login(c echo.Context) error {
	req := middleware.Validated[LoginRequest](c)

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	sess, err := h.Auth.Login(ctx, normalizeEmail(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return message(c, http.StatusUnauthorized, "Invalid email or password")
		}
		return storeFailed(c, h.Log, "login", err)
	}

	h.Activity.Log(c, sess.User.ID, model.ActionLogin, model.EntityUser, sess.User.ID)
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Refresh: exchange a live refresh token for a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	req := middleware.Validated[RefreshRequest](c)

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, req.RefreshToken)
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		return message(c, http.StatusUnauthorized, "Invalid or expired refresh token")
	case errors.Is(err, service.ErrRefreshRevoked):
		return message(c, http.StatusForbidden, "Refresh token is no longer valid")
	case err != nil:
		return storeFailed(c, h.Log, "refresh token", err)
	}
	return c.JSON(http.StatusOK, pairOf(sess))
}

// Logout empties the refresh-token slot of the caller, or of userId when an
// admin names another account.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	_ = c.Bind(&req) // the body is optional

	caller := middleware.CurrentUser(c)
	if caller == nil {
		return message(c, http.StatusUnauthorized, "Not authorized, no token")
	}
	target := strings.TrimSpace(req.UserID)
	if target == "" {
		target = caller.ID
	}
	if target != caller.ID && !caller.IsAdmin() {
		return message(c, http.StatusForbidden, "Not authorized to log out another user")
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	if err := h.Auth.Logout(ctx, target); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "User not found")
		}
		return storeFailed(c, h.Log, "logout", err)
	}

	h.Activity.Log(c, caller.ID, model.ActionLogout, model.EntityUser, target)
	return message(c, http.StatusOK, "Logged out successfully")
}

// Me: the user resolved by the auth guard.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
