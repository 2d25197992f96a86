// Package files implements core.FileStorage on the local filesystem.
package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

type diskStorage struct {
	dir string
}

var _ core.FileStorage = (*diskStorage)(nil)

func NewDiskStorage(dir string) (*diskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating uploads dir %s", dir)
	}
	return &diskStorage{dir: dir}, nil
}

// Save writes the content under a uuid-prefixed copy of the (sanitized)
// original name and returns that name as the opaque reference.
func (s *diskStorage) Save(_ context.Context, name string, content io.Reader) (string, error) {
	ref := uuid.New().String() + "_" + sanitizeName(name)

	f, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, content); err != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "writing file")
	}
	return ref, nil
}

func (s *diskStorage) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(ref)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrFileMissing
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (s *diskStorage) Delete(_ context.Context, ref string) error {
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(ref))); err != nil {
		if os.IsNotExist(err) {
			return core.ErrFileMissing
		}
		return errors.Wrap(err, "removing file")
	}
	return nil
}

// sanitizeName strips path separators and whitespace from an uploaded name.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, string(os.PathSeparator), "")
	if name == "" || name == "." {
		name = "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
