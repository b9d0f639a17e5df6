package middleware

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/special-academy-api/internal/validation"
)

const ctxValidated = "validated_body"

// UploadReceiver is implemented by request types that accept a multipart
// "file" field next to their form values. ReceiveUpload is called with nil
// when the request carries no file.
type UploadReceiver interface {
	ReceiveUpload(fh *multipart.FileHeader)
}

// Validate binds the request body into a fresh T, runs its validate tags and
// either rejects the request with 400 or stores the bound value for the
// handler. The handler never runs on invalid input.
func Validate[T any]() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := new(T)
			if err := c.Bind(req); err != nil {
				return ValidationFailed(c, map[string]string{"body": "Invalid request body"})
			}
			// the upload is always handed over, nil when absent, so file
			// presence never comes from bound form values
			if r, ok := any(req).(UploadReceiver); ok {
				fh, err := c.FormFile("file")
				if err != nil {
					fh = nil
				}
				r.ReceiveUpload(fh)
			}
			if errs := validation.Struct(req); len(errs) > 0 {
				return ValidationFailed(c, errs)
			}
			c.Set(ctxValidated, req)
			return next(c)
		}
	}
}

// Validated returns the body stored by Validate[T], or nil when the route
// was registered without it.
func Validated[T any](c echo.Context) *T {
	v, _ := c.Get(ctxValidated).(*T)
	return v
}

// ValidationFailed writes the 400 validation envelope.
func ValidationFailed(c echo.Context, errs map[string]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": errs})
}
