// Package upload hands uploaded files to an external image host and returns
// the public URL the item will point at.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/config"
)

// ErrDisabled is returned by the "none" provider.
var ErrDisabled = errors.New("upload: no provider configured")

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// New builds the uploader selected by cfg.Provider.
func New(cfg config.UploadConfig, log *zap.Logger) (Uploader, error) {
	switch cfg.Provider {
	case "imgbb":
		return NewImgBB(cfg.Endpoint, cfg.APIKey, cfg.Timeout, log), nil
	case "none", "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("upload: unknown provider %q", cfg.Provider)
	}
}

// Disabled rejects every upload.
type Disabled struct{}

func (Disabled) Upload(context.Context, *multipart.FileHeader) (string, error) {
	return "", ErrDisabled
}
