package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/special-academy-api/internal/middleware"
	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
)

// CategoryRequest is the body of POST /api/categories.
type CategoryRequest struct {
	ID          string `json:"_id" form:"_id"`
	Name        string `json:"name" form:"name" validate:"required"`
	Description string `json:"description" form:"description"`
}

func (CategoryRequest) Messages() map[string]string {
	return map[string]string{"name": "Name is required"}
}

// CategoryUpdateRequest is the body of PUT /api/categories/:id. Empty
// fields keep their stored value.
type CategoryUpdateRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

func (h *ContentHandler) CreateCategory(c echo.Context) error {
	req := middleware.Validated[CategoryRequest](c)
	cat := &model.Category{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	if err := h.Store.Categories.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return message(c, http.StatusConflict, "Category already exists")
		}
		return storeFailed(c, h.Log, "create category", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionCreate, model.EntityCategory, cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *ContentHandler) ListCategories(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	cats, err := h.Store.Categories.List(ctx, pageFrom(c))
	if err != nil {
		return storeFailed(c, h.Log, "list categories", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *ContentHandler) GetCategory(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	cat, err := h.Store.Categories.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Category not found")
		}
		return storeFailed(c, h.Log, "get category", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *ContentHandler) UpdateCategory(c echo.Context) error {
	req := middleware.Validated[CategoryUpdateRequest](c)
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	cat, err := h.Store.Categories.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Category not found")
		}
		return storeFailed(c, h.Log, "get category", err)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		cat.Name = name
	}
	if req.Description != "" {
		cat.Description = req.Description
	}
	if err := h.Store.Categories.Update(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Category not found")
		}
		return storeFailed(c, h.Log, "update category", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionUpdate, model.EntityCategory, cat.ID)
	return c.JSON(http.StatusOK, cat)
}

// DeleteCategory refuses to orphan subcategories.
func (h *ContentHandler) DeleteCategory(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	if _, err := h.Store.Categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Category not found")
		}
		return storeFailed(c, h.Log, "get category", err)
	}
	n, err := h.Store.Subcategories.CountByCategory(ctx, id)
	if err != nil {
		return storeFailed(c, h.Log, "count subcategories", err)
	}
	if n > 0 {
		return message(c, http.StatusConflict, "Cannot delete category with existing subcategories")
	}
	if err := h.Store.Categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Category not found")
		}
		return storeFailed(c, h.Log, "delete category", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionDelete, model.EntityCategory, id)
	return message(c, http.StatusOK, "Category removed")
}
