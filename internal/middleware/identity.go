package middleware

// identity.go defines the context keys the auth guard fills in and the
// helpers handlers use to read them back. When no guard ran, the helpers
// return zero values.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/special-academy-api/internal/model"
)

const (
	ctxUser   = "user"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// SetIdentity attaches the authenticated user to the request context.
func SetIdentity(c echo.Context, u *model.User) {
	c.Set(ctxUser, u)
	c.Set(ctxUserID, u.ID)
	c.Set(ctxRole, u.Role)
}

// CurrentUser returns the user resolved by the guard, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ctxUser).(*model.User)
	return u
}

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// userID is the rate-limit/cache key form of UserID.
func userID(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "guest"
}
