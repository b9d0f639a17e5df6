package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/activity"
	"github.com/iliyamo/special-academy-api/internal/middleware"
	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
	"github.com/iliyamo/special-academy-api/internal/service"
)

// UserHandler serves the admin-only /api/users routes.
type UserHandler struct {
	Users    repository.UserRepository
	Auth     *service.AuthService
	Activity *activity.Logger
	Timeout  time.Duration
	Log      *zap.Logger
}

func NewUserHandler(users repository.UserRepository, auth *service.AuthService, act *activity.Logger, timeout time.Duration, log *zap.Logger) *UserHandler {
	return &UserHandler{Users: users, Auth: auth, Activity: act, Timeout: storeTimeout(timeout), Log: log}
}

// UpdateUserRequest is the body of PUT /api/users/:id. Absent fields are
// left unchanged; present ones must be valid.
type UpdateUserRequest struct {
	FullName *string `json:"fullName" validate:"omitnil,notblank"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
}

func (UpdateUserRequest) Messages() map[string]string {
	return map[string]string{
		"fullName": "Full name cannot be empty",
		"email":    "Please provide a valid email",
		"password": "Password must be at least 6 characters long",
		"role":     "Role must be either 'admin' or 'user'",
	}
}

// CreateUser lets an admin add an account with any role. No tokens are issued.
func (h *UserHandler) CreateUser(c echo.Context) error {
	req := middleware.Validated[RegisterRequest](c)
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	u, err := h.Auth.CreateUser(ctx, service.UserInput{
		ID:       req.ID,
		FullName: req.FullName,
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return message(c, http.StatusBadRequest, "User already exists")
		}
		if fields := userInputErrors(err); fields != nil {
			return middleware.ValidationFailed(c, fields)
		}
		return storeFailed(c, h.Log, "create user", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionCreate, model.EntityUser, u.ID)
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	users, err := h.Users.List(ctx, pageFrom(c))
	if err != nil {
		return storeFailed(c, h.Log, "list users", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "User not found")
		}
		return storeFailed(c, h.Log, "get user", err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateUser applies the patch; a new password or role ends the user's session.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	req := middleware.Validated[UpdateUserRequest](c)
	if req.Email != nil {
		e := normalizeEmail(*req.Email)
		req.Email = &e
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	u, err := h.Auth.UpdateUser(ctx, c.Param("id"), service.UserPatch{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if fields := userInputErrors(err); fields != nil {
		return middleware.ValidationFailed(c, fields)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return message(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrEmailTaken):
		return message(c, http.StatusConflict, "Email already in use")
	case err != nil:
		return storeFailed(c, h.Log, "update user", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionUpdate, model.EntityUser, u.ID)
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "User not found")
		}
		return storeFailed(c, h.Log, "delete user", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionDelete, model.EntityUser, id)
	return message(c, http.StatusOK, "User removed")
}

// userInputErrors maps the service's input errors to validation fields.
func userInputErrors(err error) map[string]string {
	switch {
	case errors.Is(err, service.ErrBlankName):
		return map[string]string{"fullName": "Full name cannot be empty"}
	case errors.Is(err, service.ErrUnknownRole):
		return map[string]string{"role": "Role must be either 'admin' or 'user'"}
	}
	return nil
}
