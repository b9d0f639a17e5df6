package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // bounds the credential store lookup
    "errors"   // matches repository sentinels
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming
    "time"     // lookup timeout

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
    "go.uber.org/zap"             // structured logging of store failures

    "github.com/iliyamo/special-academy-api/internal/repository" // user lookup and ErrNotFound
    "github.com/iliyamo/special-academy-api/internal/service"    // access token verification
)

// Guard messages returned to the client.
const (
    msgNoToken      = "Not authorized, no token"
    msgTokenFailed  = "Not authorized, token failed"
    msgUserNotFound = "Not authorized, user not found"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// resolves its subject through the credential store and injects the user,
// its id and its role into the request context.  Handlers and downstream
// middleware read them via CurrentUser, UserID and Role.
func JWTAuth(tokens *service.TokenService, users repository.UserRepository, timeout time.Duration, log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgNoToken})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgNoToken})
            }

            // Signature, algorithm and expiry are all checked here; the
            // caller cannot tell which one failed.
            claims, err := tokens.VerifyAccessToken(raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgTokenFailed})
            }

            // The subject must still exist; its role is taken from the store.
            ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
            defer cancel()
            u, err := users.GetByID(ctx, claims.Subject)
            if err != nil {
                if errors.Is(err, repository.ErrNotFound) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"message": msgUserNotFound})
                }
                log.Error("auth guard: user lookup failed", zap.String("user_id", claims.Subject), zap.Error(err))
                return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
            }

            SetIdentity(c, u)
            return next(c)
        }
    }
}
