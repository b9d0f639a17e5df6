package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth
// ran first and stored the role in the context.  A request without an
// identity is rejected with 401; a role outside the allowed set with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role := Role(c)
            if role == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgNoToken})
            }
            if !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized, insufficient role"})
            }
            return next(c)
        }
    }
}
