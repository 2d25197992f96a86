package core

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrFileMissing indicates a stored file reference whose underlying blob cannot be located.
var ErrFileMissing = errors.New("file missing")

// FileStorage is any backend that can store uploaded files and serve them
// back by the opaque reference returned on save.
type FileStorage interface {
	Save(ctx context.Context, name string, content io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}
