package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo router and groups

	"github.com/iliyamo/special-academy-api/internal/handler"    // content handlers
	"github.com/iliyamo/special-academy-api/internal/middleware" // JWT + role + validation middlewares
	"github.com/iliyamo/special-academy-api/internal/model"      // role names
)

// RegisterContent registers the category, subcategory and item endpoints.
// Reads need any valid token and are cached per role; writes need admin.
func RegisterContent(e *echo.Echo, d Deps) {
	h := d.Content
	admin := middleware.RequireRole(model.RoleAdmin)
	read := cached(d, d.Config.Cache.TTL)

	// ---- Categories ----
	g := e.Group("/api/categories", guard(d))
	g.POST("", h.CreateCategory, admin, middleware.Validate[handler.CategoryRequest]())
	g.GET("", h.ListCategories, read)
	g.GET("/:id", h.GetCategory, read)
	g.PUT("/:id", h.UpdateCategory, admin, middleware.Validate[handler.CategoryUpdateRequest]())
	g.DELETE("/:id", h.DeleteCategory, admin)

	// ---- Subcategories ----
	g = e.Group("/api/subcategories", guard(d))
	g.POST("", h.CreateSubcategory, admin, middleware.Validate[handler.SubcategoryRequest]())
	g.GET("", h.ListSubcategories, read)
	g.GET("/:id", h.GetSubcategory, read)
	g.PUT("/:id", h.UpdateSubcategory, admin, middleware.Validate[handler.SubcategoryUpdateRequest]())
	g.DELETE("/:id", h.DeleteSubcategory, admin)

	// ---- Items ----
	// Create and update accept multipart bodies carrying the pdf in "file".
	g = e.Group("/api/items", guard(d))
	g.POST("", h.CreateItem, admin, middleware.Validate[handler.ItemRequest]())
	g.GET("", h.ListItems, read)
	g.GET("/:id", h.GetItem, read)
	g.PUT("/:id", h.UpdateItem, admin, middleware.Validate[handler.ItemUpdateRequest]())
	g.DELETE("/:id", h.DeleteItem, admin)
}
