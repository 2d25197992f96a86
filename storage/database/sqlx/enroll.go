package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/enroll"
	"github.com/trezcool/shule/core/user"
)

const foreignKeyViolation = "23503"

type enrollmentRow struct {
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	CreatedAt null.Time `db:"created_at"`
}

func (r enrollmentRow) enrollment() enroll.Enrollment {
	return enroll.Enrollment{
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		CreatedAt: r.CreatedAt.Time,
	}
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

// CreateEnrollment inserts the unique pair; a concurrent or repeated insert
// hits ON CONFLICT DO NOTHING and the existing row is returned instead.
// A malformed course id is a missing course, not a query error.
func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment, _ ...core.DBExecutor) (enroll.Enrollment, error) {
	if _, err := uuid.Parse(enr.CourseID); err != nil {
		return enroll.Enrollment{}, enroll.ErrCourseNotFound
	}

	const query = `
INSERT INTO enrollment (student_id, course_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (student_id, course_id) DO NOTHING`
	_, err := repo.db.ExecContext(ctx, query, enr.StudentID, enr.CourseID, enr.CreatedAt.UTC())
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == foreignKeyViolation {
			return enroll.Enrollment{}, enroll.ErrCourseNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}

	var row enrollmentRow
	const get = "SELECT * FROM enrollment WHERE student_id = $1 AND course_id = $2"
	if err = repo.db.GetContext(ctx, &row, get, enr.StudentID, enr.CourseID); err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "finding enrollment")
	}
	return row.enrollment(), nil
}

func (repo enrollmentRepository) DeleteEnrollment(ctx context.Context, studentID, courseID string, _ ...core.DBExecutor) error {
	if _, err := uuid.Parse(courseID); err != nil {
		return nil // nothing to delete
	}

	const query = "DELETE FROM enrollment WHERE student_id = $1 AND course_id = $2"
	if _, err := repo.db.ExecContext(ctx, query, studentID, courseID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return nil
}

func (repo enrollmentRepository) IsEnrolled(ctx context.Context, studentID, courseID string, _ ...core.DBExecutor) (bool, error) {
	var exists bool
	const query = "SELECT EXISTS (SELECT 1 FROM enrollment WHERE student_id = $1 AND course_id = $2)"
	if err := repo.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrap(err, "checking enrollment")
	}
	return exists, nil
}

func (repo enrollmentRepository) CoursesForStudent(ctx context.Context, studentID string, _ ...core.DBExecutor) ([]course.Course, error) {
	var rows []courseRow
	const query = `
SELECT c.* FROM course c
JOIN enrollment e ON e.course_id = c.id
WHERE e.student_id = $1
ORDER BY e.created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student courses")
	}
	return rowsToCourses(rows), nil
}

func (repo enrollmentRepository) StudentsForCourse(ctx context.Context, courseID string, _ ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	const query = `
SELECT u.* FROM "user" u
JOIN enrollment e ON e.student_id = u.id
WHERE e.course_id = $1
ORDER BY e.created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course roster")
	}
	return rowsToUsers(rows), nil
}
