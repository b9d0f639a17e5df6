package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/special-academy-api/internal/middleware"
	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
	"github.com/iliyamo/special-academy-api/internal/validation"
)

const (
	msgPDFRequired     = "A PDF file is required"
	msgYouTubeRequired = "A YouTube URL is required"
	msgYouTubeInvalid  = "Invalid YouTube URL"
	msgItemType        = "Type must be either 'pdf' or 'youtube_url'"
)

// ItemRequest is the JSON or multipart body of POST /api/items. A pdf item
// carries its document in the multipart "file" field.
type ItemRequest struct {
	ID            string `json:"_id" form:"_id"`
	SubcategoryID string `json:"subcategory_id" form:"subcategory_id" validate:"required"`
	Title         string `json:"title" form:"title" validate:"required"`
	Description   string `json:"description" form:"description"`
	Type          string `json:"type" form:"type" validate:"required,oneof=pdf youtube_url"`
	YoutubeURL    string `json:"youtube_url" form:"youtube_url" validate:"required_if=Type youtube_url,youtube_if=Type youtube_url"`
	FileName      string `json:"-" form:"-" name:"file_path" validate:"required_if=Type pdf"`

	file *multipart.FileHeader
}

func (r *ItemRequest) ReceiveUpload(fh *multipart.FileHeader) {
	r.file, r.FileName = fh, ""
	if fh != nil {
		r.FileName = fh.Filename
	}
}

func (*ItemRequest) Messages() map[string]string {
	return map[string]string{
		"title":                   "Title is required",
		"subcategory_id":          "Subcategory ID is required",
		"type":                    msgItemType,
		"file_path":               msgPDFRequired,
		"youtube_url.required_if": msgYouTubeRequired,
		"youtube_url.youtube_if":  msgYouTubeInvalid,
	}
}

// ItemUpdateRequest is the body of PUT /api/items/:id. Every field is
// optional; the payload rules are checked against the merged item.
type ItemUpdateRequest struct {
	SubcategoryID string `json:"subcategory_id" form:"subcategory_id"`
	Title         string `json:"title" form:"title"`
	Description   string `json:"description" form:"description"`
	Type          string `json:"type" form:"type" validate:"omitempty,oneof=pdf youtube_url"`
	YoutubeURL    string `json:"youtube_url" form:"youtube_url" validate:"youtube_if=Type youtube_url"`

	file *multipart.FileHeader
}

func (r *ItemUpdateRequest) ReceiveUpload(fh *multipart.FileHeader) { r.file = fh }

func (*ItemUpdateRequest) Messages() map[string]string {
	return map[string]string{
		"type":        msgItemType,
		"youtube_url": msgYouTubeInvalid,
	}
}

func (h *ContentHandler) populateSubcategories(ctx context.Context, items ...*model.Item) error {
	seen := map[string]*model.Subcategory{}
	for _, it := range items {
		sub, ok := seen[it.SubcategoryID]
		if !ok {
			var err error
			sub, err = h.Store.Subcategories.GetByID(ctx, it.SubcategoryID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			seen[it.SubcategoryID] = sub
		}
		it.Subcategory = sub
	}
	return nil
}

func (h *ContentHandler) subcategoryExists(c echo.Context, ctx context.Context, id string) (bool, error) {
	if _, err := h.Store.Subcategories.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, message(c, http.StatusBadRequest, "Subcategory not found")
		}
		return false, storeFailed(c, h.Log, "get subcategory", err)
	}
	return true, nil
}

// CreateItem validates, checks the parent, uploads the pdf if any and
// stores the item with the payload matching its type.
func (h *ContentHandler) CreateItem(c echo.Context) error {
	req := middleware.Validated[ItemRequest](c)
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	it := &model.Item{
		ID:            strings.TrimSpace(req.ID),
		SubcategoryID: strings.TrimSpace(req.SubcategoryID),
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Type:          req.Type,
	}
	if ok, err := h.subcategoryExists(c, ctx, it.SubcategoryID); !ok {
		return err
	}

	var filePath string
	if it.Type == model.ItemTypePDF {
		if req.file == nil {
			return middleware.ValidationFailed(c, map[string]string{"file_path": msgPDFRequired})
		}
		url, ok, err := h.uploadFile(c, req.file)
		if !ok {
			return err
		}
		filePath = url
	}
	it.SetPayload(filePath, strings.TrimSpace(req.YoutubeURL))

	if err := h.Store.Items.Create(ctx, it); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return message(c, http.StatusConflict, "Item already exists")
		}
		return storeFailed(c, h.Log, "create item", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionCreate, model.EntityItem, it.ID)
	return c.JSON(http.StatusCreated, it)
}

func (h *ContentHandler) ListItems(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	items, err := h.Store.Items.List(ctx, pageFrom(c))
	if err != nil {
		return storeFailed(c, h.Log, "list items", err)
	}
	if err := h.populateSubcategories(ctx, items...); err != nil {
		return storeFailed(c, h.Log, "populate subcategories", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ContentHandler) GetItem(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	it, err := h.Store.Items.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Item not found")
		}
		return storeFailed(c, h.Log, "get item", err)
	}
	if err := h.populateSubcategories(ctx, it); err != nil {
		return storeFailed(c, h.Log, "populate subcategories", err)
	}
	return c.JSON(http.StatusOK, it)
}

// UpdateItem merges the non-empty fields into the stored item. Switching
// type clears the other payload; a pdf item without a stored file needs an
// upload and a youtube item needs a URL, from the request or the store.
func (h *ContentHandler) UpdateItem(c echo.Context) error {
	req := middleware.Validated[ItemUpdateRequest](c)
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	it, err := h.Store.Items.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Item not found")
		}
		return storeFailed(c, h.Log, "get item", err)
	}

	if sid := strings.TrimSpace(req.SubcategoryID); sid != "" && sid != it.SubcategoryID {
		if ok, err := h.subcategoryExists(c, ctx, sid); !ok {
			return err
		}
		it.SubcategoryID = sid
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		it.Title = title
	}
	if req.Description != "" {
		it.Description = req.Description
	}
	if req.Type != "" {
		it.Type = req.Type
	}

	filePath, youtubeURL := it.FilePath, it.YoutubeURL
	switch it.Type {
	case model.ItemTypePDF:
		if req.file == nil && filePath == "" {
			return middleware.ValidationFailed(c, map[string]string{"file_path": msgPDFRequired})
		}
	case model.ItemTypeYouTube:
		if u := strings.TrimSpace(req.YoutubeURL); u != "" {
			youtubeURL = u
		}
		if youtubeURL == "" {
			return middleware.ValidationFailed(c, map[string]string{"youtube_url": msgYouTubeRequired})
		}
		if !validation.IsYouTubeURL(youtubeURL) {
			return middleware.ValidationFailed(c, map[string]string{"youtube_url": msgYouTubeInvalid})
		}
	}
	if it.Type == model.ItemTypePDF && req.file != nil {
		url, ok, err := h.uploadFile(c, req.file)
		if !ok {
			return err
		}
		filePath = url
	}
	it.SetPayload(filePath, youtubeURL)

	if err := h.Store.Items.Update(ctx, it); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Item not found")
		}
		return storeFailed(c, h.Log, "update item", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionUpdate, model.EntityItem, it.ID)
	return c.JSON(http.StatusOK, it)
}

func (h *ContentHandler) DeleteItem(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	if err := h.Store.Items.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return message(c, http.StatusNotFound, "Item not found")
		}
		return storeFailed(c, h.Log, "delete item", err)
	}

	h.Activity.Log(c, middleware.UserID(c), model.ActionDelete, model.EntityItem, id)
	return message(c, http.StatusOK, "Item removed")
}
