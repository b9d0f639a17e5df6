package router

// Admin-only routes: user management, dashboard stats and the audit trail.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/special-academy-api/internal/handler"
	"github.com/iliyamo/special-academy-api/internal/middleware"
	"github.com/iliyamo/special-academy-api/internal/model"
)

func RegisterAdmin(e *echo.Echo, d Deps) {
	admin := middleware.RequireRole(model.RoleAdmin)

	u := e.Group("/api/users", guard(d), admin)
	u.POST("", d.People.CreateUser, middleware.Validate[handler.RegisterRequest]())
	u.GET("", d.People.ListUsers)
	u.GET("/:id", d.People.GetUser)
	u.PUT("/:id", d.People.UpdateUser, middleware.Validate[handler.UpdateUserRequest]())
	u.DELETE("/:id", d.People.DeleteUser)

	e.GET("/api/stats", d.Admin.Stats, guard(d), admin, cached(d, d.Config.StatsCacheTTL))

	l := e.Group("/api/activity-logs", guard(d), admin)
	l.GET("", d.Admin.ListActivityLogs)
	l.GET("/metrics", d.Admin.ActivityMetrics)
}
