// Package content resolves an authorized lesson request into its uploaded
// file stream. Authorization happens before it is called.
package content

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
)

// ErrNoFile indicates the lesson has no attached file at all,
// as opposed to core.ErrFileMissing where the reference exists
// but the blob cannot be located.
var ErrNoFile = errors.New("lesson has no attached file")

type (
	Service interface {
		// OpenLessonFile streams the lesson's uploaded file. The caller closes it.
		OpenLessonFile(ctx context.Context, lsn course.Lesson) (io.ReadCloser, error)
	}

	service struct {
		files core.FileStorage
	}
)

var _ Service = (*service)(nil)

func NewService(files core.FileStorage) Service {
	return &service{files: files}
}

func (svc *service) OpenLessonFile(ctx context.Context, lsn course.Lesson) (io.ReadCloser, error) {
	if !lsn.HasFile() {
		return nil, ErrNoFile
	}
	rc, err := svc.files.Open(ctx, lsn.FileRef)
	if err != nil {
		if errors.Cause(err) == core.ErrFileMissing {
			return nil, core.ErrFileMissing
		}
		return nil, errors.Wrap(err, "opening lesson file")
	}
	return rc, nil
}
