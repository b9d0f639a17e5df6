package handler // handler defines http handlers

import (
    "context"        // bounds every store call
    "errors"         // matches repository and upload sentinels
    "mime/multipart" // uploaded file headers
    "net/http"       // status codes
    "strconv"        // parses paging parameters
    "time"           // store timeout

    "github.com/labstack/echo/v4" // echo defines request context types
    "go.uber.org/zap"             // structured logging of store failures

    "github.com/iliyamo/special-academy-api/internal/activity"   // audit trail for writes
    "github.com/iliyamo/special-academy-api/internal/middleware" // validation envelope and identity
    "github.com/iliyamo/special-academy-api/internal/repository" // stores and paging
    "github.com/iliyamo/special-academy-api/internal/upload"     // pdf uploads
)

const msgInternal = "Internal server error"

// ContentHandler bundles the repositories and collaborators behind the
// category, subcategory and item routes.
type ContentHandler struct {
    Store    *repository.Store  // Store provides the content repositories
    Uploader upload.Uploader    // Uploader hands item files to the image host
    Activity *activity.Logger   // Activity records successful writes
    Timeout  time.Duration      // Timeout bounds each store call
    Log      *zap.Logger
}

// NewContentHandler panics if a required dependency is missing.
func NewContentHandler(store *repository.Store, up upload.Uploader, act *activity.Logger, timeout time.Duration, log *zap.Logger) *ContentHandler {
    if store == nil || up == nil || log == nil {
        panic("nil dependency passed to NewContentHandler")
    }
    return &ContentHandler{Store: store, Uploader: up, Activity: act, Timeout: storeTimeout(timeout), Log: log}
}

func storeTimeout(d time.Duration) time.Duration {
    if d <= 0 {
        return 5 * time.Second
    }
    return d
}

// storeCtx derives the per-call deadline from the request context.
func storeCtx(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), d)
}

// pageFrom reads ?limit and ?offset; junk values fall back to the defaults.
func pageFrom(c echo.Context) repository.Page {
    var p repository.Page
    if n, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil {
        p.Limit = n
    }
    if n, err := strconv.ParseInt(c.QueryParam("offset"), 10, 64); err == nil {
        p.Offset = n
    }
    return p.Normalize()
}

func message(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"message": msg})
}

// storeFailed logs err and answers 500 without leaking it.
func storeFailed(c echo.Context, log *zap.Logger, op string, err error) error {
    log.Error(op+" failed",
        zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
        zap.String("user_id", middleware.UserID(c)),
        zap.Error(err))
    return message(c, http.StatusInternalServerError, msgInternal)
}

// uploadFile delegates fh to the image host.  ok is false when a response
// has already been written.
func (h *ContentHandler) uploadFile(c echo.Context, fh *multipart.FileHeader) (url string, ok bool, err error) {
    url, uerr := h.Uploader.Upload(c.Request().Context(), fh)
    if uerr == nil {
        return url, true, nil
    }
    if errors.Is(uerr, upload.ErrDisabled) {
        return "", false, message(c, http.StatusServiceUnavailable, "File uploads are disabled")
    }
    return "", false, message(c, http.StatusInternalServerError, "Error uploading to ImgBB")
}
