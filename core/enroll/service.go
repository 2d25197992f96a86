package enroll

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrCourseNotFound = errors.New("course not found")
)

type (
	Repository interface {
		// CreateEnrollment inserts the unique (student, course) pair. An already
		// existing pair is not an error: the existing row is returned unchanged.
		// Returns ErrCourseNotFound if the course does not exist.
		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		// DeleteEnrollment removes the pair; absence of a prior enrollment is not an error.
		DeleteEnrollment(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) error
		IsEnrolled(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (bool, error)
		// CoursesForStudent returns the student's courses in enrollment order.
		CoursesForStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]course.Course, error)
		// StudentsForCourse returns the course roster in enrollment order.
		StudentsForCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]user.User, error)
	}

	Service interface {
		Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error)
		Unenroll(ctx context.Context, studentID, courseID string) error
		IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
		CoursesForStudent(ctx context.Context, studentID string) ([]course.Course, error)
		StudentsForCourse(ctx context.Context, courseID string) ([]user.User, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Enroll records the student into the course. Enrolling twice is an
// idempotent success and never produces a duplicate pair.
func (svc *service) Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	enr := Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}
	enr, err := svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		if errors.Cause(err) == ErrCourseNotFound {
			return Enrollment{}, err
		}
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

// Unenroll removes the student from the course; not being enrolled is a no-op.
func (svc *service) Unenroll(ctx context.Context, studentID, courseID string) error {
	if err := svc.repo.DeleteEnrollment(ctx, studentID, courseID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return nil
}

func (svc *service) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	return svc.repo.IsEnrolled(ctx, studentID, courseID)
}

func (svc *service) CoursesForStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	return svc.repo.CoursesForStudent(ctx, studentID)
}

func (svc *service) StudentsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	return svc.repo.StudentsForCourse(ctx, courseID)
}
