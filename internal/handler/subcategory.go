package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/special-academy-api/internal/middleware"
	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
)

// SubcategoryRequest is the body of POST /api/subcategories.
type SubcategoryRequest struct {
	ID          string `json:"_id" form:"_id"`
	CategoryID  string `json:"category_id" form:"category_id" validate:"required"`
	Name        string `json:"name" form:"name" validate:"required"`
	Description string `json:"description" form:"description"`
}

func (SubcategoryRequest) Messages() map[string]string {
	return map[string]string{
		"name":        "Name is required",
		"category_id": "Category ID is required",
	}
}

// SubcategoryUpdateRequest is the body of PUT /api/subcategories/:id.
type SubcategoryUpdateRequest struct {
	CategoryID  string `json:"category_id" form:"category_id"`
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

// populateCategories attaches each subcategory's parent, loading every
// distinct category once. A dangling reference is left unpopulated.
func (h *ContentHandler) populateCategories(ctx context.Context, subs ...*model.Subcategory) error {
	seen := map[string]*model.Category{}
	for _, s := range subs {
		cat, ok := seen[s.CategoryID]
		if !ok {
			var err error
			cat, err = h.Store.Categories.GetByID(ctx, s.CategoryID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			seen[s.CategoryID] = cat
		}
		s.Category = cat
	}
	return nil
}

// categoryExists answers 400 itself when the parent is missing; ok is
// false whenever a response was written.
func (h *ContentHandler) categoryExists(c echo.Context, ctx context.Context, id string) (bool, error) {
	if _, err := h.Store.Categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, message(c, http.StatusBadRequest, "Category not found")
		}
		return false, storeFailed(c, h.Log, "get category", err)
	}
	return true, nil
}

func (h *ContentHandler) CreateSubcategory(c echo.Context) error {
	req := middleware.Validated[SubcategoryRequest](c)
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	sub := &model.Subcategory{
		ID:          strings.TrimSpace(req.ID),
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if ok, err := h.categoryExists(c, ctx, sub.CategoryID); !ok {
		return err
	}
	if err := h.Store.Subcategories.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return message(c, http.StatusConflict, "Subcategory already exists")
		}
		return storeFailed(c, h.Log, "create subcategory", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionCreate, model.EntitySubcategory, sub.ID)
	return c.JSON(http.StatusCreated, sub)
}

func (h *ContentHandler) ListSubcategories(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	subs, err := h.Store.Subcategories.List(ctx, pageFrom(c))
	if err != nil {
		return storeFailed(c, h.Log, "list subcategories", err)
	}
	if err := h.populateCategories(ctx, subs...); err != nil {
		return storeFailed(c, h.Log, "populate categories", err)
	}
	return c.JSON(http.StatusOK, subs)
}

func (h *ContentHandler) GetSubcategory(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	sub, err := h.Store.Subcategories.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Subcategory not found")
		}
		return storeFailed(c, h.Log, "get subcategory", err)
	}
	if err := h.populateCategories(ctx, sub); err != nil {
		return storeFailed(c, h.Log, "populate categories", err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *ContentHandler) UpdateSubcategory(c echo.Context) error {
	req := middleware.Validated[SubcategoryUpdateRequest](c)
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	sub, err := h.Store.Subcategories.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Subcategory not found")
		}
		return storeFailed(c, h.Log, "get subcategory", err)
	}
	if cid := strings.TrimSpace(req.CategoryID); cid != "" && cid != sub.CategoryID {
		if ok, err := h.categoryExists(c, ctx, cid); !ok {
			return err
		}
		sub.CategoryID = cid
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		sub.Name = name
	}
	if req.Description != "" {
		sub.Description = req.Description
	}
	if err := h.Store.Subcategories.Update(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Subcategory not found")
		}
		return storeFailed(c, h.Log, "update subcategory", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionUpdate, model.EntitySubcategory, sub.ID)
	return c.JSON(http.StatusOK, sub)
}

// DeleteSubcategory refuses to orphan items.
func (h *ContentHandler) DeleteSubcategory(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	if _, err := h.Store.Subcategories.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Subcategory not found")
		}
		return storeFailed(c, h.Log, "get subcategory", err)
	}
	n, err := h.Store.Items.CountBySubcategory(ctx, id)
	if err != nil {
		return storeFailed(c, h.Log, "count items", err)
	}
	if n > 0 {
		return message(c, http.StatusConflict, "Cannot delete subcategory with existing items")
	}
	if err := h.Store.Subcategories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Subcategory not found")
		}
		return storeFailed(c, h.Log, "delete subcategory", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionDelete, model.EntitySubcategory, id)
	return message(c, http.StatusOK, "Subcategory removed")
}
