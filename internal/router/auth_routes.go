package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/special-academy-api/internal/handler"
	"github.com/iliyamo/special-academy-api/internal/middleware"
)

// RegisterAuth registers the credential endpoints under /api/auth.
// Register, login and refresh are public and rate limited; logout and me
// require an access token.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := d.Auth
	limit := middleware.RateLimit(d.Config.RateLimit, d.Redis, d.Log)

	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limit, middleware.Validate[handler.RegisterRequest]())
	g.POST("/login", a.Login, limit, middleware.Validate[handler.LoginRequest]())
	// Rotates the refresh token; the presented one stops working.
	g.POST("/refresh-token", a.Refresh, limit, middleware.Validate[handler.RefreshRequest]())

	g.POST("/logout", a.Logout, guard(d))
	g.GET("/me", a.Me, guard(d))
}
