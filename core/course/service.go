package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		// QueryCourses applies available QueryFilter fields; a nil filter returns all
		// courses. QueryFilter.Search does a case-insensitive match on Title or Description.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		CoursesByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		// DeleteCourse removes the course along with its lessons and enrollments.
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateLesson(ctx context.Context, lsn Lesson, exec ...core.DBExecutor) (Lesson, error)
		GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (Lesson, error)
		LessonsByCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson, exec ...core.DBExecutor) (Lesson, error)
		DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateCourse(ctx context.Context, teacherID string, nc NewCourse) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error)
		CoursesByTeacher(ctx context.Context, teacherID string) ([]Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		CreateLesson(ctx context.Context, courseID string, nl NewLesson, file *FileUpload) (Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		LessonsByCourse(ctx context.Context, courseID string) ([]Lesson, error)
		UpdateLesson(ctx context.Context, id string, ul UpdateLesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error
	}

	service struct {
		repo  Repository
		files core.FileStorage
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, files core.FileStorage) Service {
	return &service{
		repo:  repo,
		files: files,
	}
}

// CreateCourse creates a course owned by the given teacher. The caller is
// responsible for authorization; teacherID is always passed explicitly.
func (svc *service) CreateCourse(ctx context.Context, teacherID string, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		TeacherID:   teacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) QueryCourses(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) CoursesByTeacher(ctx context.Context, teacherID string) ([]Course, error) {
	return svc.repo.CoursesByTeacher(ctx, teacherID)
}

func (svc *service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:          id,
		Title:       uc.Title,
		Description: uc.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

// DeleteCourse removes a course, its lessons and their enrollments.
// Uploaded lesson files are removed from storage after the records are gone;
// a missing blob is not an error at that point.
func (svc *service) DeleteCourse(ctx context.Context, id string) error {
	lessons, err := svc.repo.LessonsByCourse(ctx, id)
	if err != nil {
		return errors.Wrap(err, "listing course lessons")
	}

	if err = svc.repo.DeleteCourse(ctx, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}

	for _, lsn := range lessons {
		svc.deleteLessonBlob(ctx, lsn)
	}
	return nil
}

// deleteLessonBlob removes a lesson's uploaded file. The record is gone by
// the time this runs so a failed or missing blob is not surfaced.
func (svc *service) deleteLessonBlob(ctx context.Context, lsn Lesson) {
	if lsn.HasFile() {
		_ = svc.files.Delete(ctx, lsn.FileRef)
	}
}

// CreateLesson creates a lesson in the given course, saving the attached
// file (if any) first. The course must exist.
func (svc *service) CreateLesson(ctx context.Context, courseID string, nl NewLesson, file *FileUpload) (Lesson, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Lesson{}, err
	}

	now := time.Now().UTC()
	lsn := Lesson{
		CourseID:  courseID,
		Title:     nl.Title,
		Body:      nl.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if file != nil && file.Name != "" {
		ref, err := svc.files.Save(ctx, file.Name, file.Content)
		if err != nil {
			return Lesson{}, errors.Wrap(err, "saving lesson file")
		}
		lsn.FileRef = ref
		lsn.FileName = file.Name
	}

	lsn, err := svc.repo.CreateLesson(ctx, lsn)
	if err != nil {
		if lsn.HasFile() {
			_ = svc.files.Delete(ctx, lsn.FileRef)
		}
		return Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return lsn, nil
}

func (svc *service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *service) LessonsByCourse(ctx context.Context, courseID string) ([]Lesson, error) {
	return svc.repo.LessonsByCourse(ctx, courseID)
}

func (svc *service) UpdateLesson(ctx context.Context, id string, ul UpdateLesson) (Lesson, error) {
	origLsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}

	origLsn.Title = ul.Title
	if ul.Body != nil {
		origLsn.Body = *ul.Body
	}
	origLsn.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLesson(ctx, origLsn)
}

func (svc *service) DeleteLesson(ctx context.Context, id string) error {
	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrLessonNotFound {
			return nil
		}
		return err
	}

	if err = svc.repo.DeleteLesson(ctx, id); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	svc.deleteLessonBlob(ctx, lsn)
	return nil
}
