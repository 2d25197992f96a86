package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
)

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	TeacherID   string    `db:"teacher_id"`
	CreatedAt   null.Time `db:"created_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func rowsToCourses(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses
}

type lessonRow struct {
	ID        string      `db:"id"`
	CourseID  string      `db:"course_id"`
	Title     string      `db:"title"`
	Body      null.String `db:"body"`
	FileRef   null.String `db:"file_ref"`
	FileName  null.String `db:"file_name"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (r lessonRow) lesson() course.Lesson {
	return course.Lesson{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Title:     r.Title,
		Body:      r.Body.String,
		FileRef:   r.FileRef.String,
		FileName:  r.FileName.String,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

func newLessonRow(lsn course.Lesson) lessonRow {
	return lessonRow{
		ID:        lsn.ID,
		CourseID:  lsn.CourseID,
		Title:     lsn.Title,
		Body:      null.NewString(lsn.Body, lsn.Body != ""),
		FileRef:   null.NewString(lsn.FileRef, lsn.FileRef != ""),
		FileName:  null.NewString(lsn.FileName, lsn.FileName != ""),
		CreatedAt: null.NewTime(lsn.CreatedAt.UTC(), !lsn.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(lsn.UpdatedAt.UTC(), !lsn.UpdatedAt.IsZero()),
	}
}

func rowsToLessons(rows []lessonRow) []course.Lesson {
	lessons := make([]course.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.lesson())
	}
	return lessons
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, _ ...core.DBExecutor) (course.Course, error) {
	crs.ID = uuid.New().String()

	const query = `
INSERT INTO course (id, title, description, teacher_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query, crs.ID, crs.Title, crs.Description, crs.TeacherID, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC())
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string, _ ...core.DBExecutor) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}

	var row courseRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM course WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return row.course(), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]course.Course, error) {
	query := "SELECT * FROM course"
	var conds []string
	var args []interface{}

	arg := func(val interface{}) string {
		args = append(args, val)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(title ILIKE "+arg(val)+" OR description ILIKE "+arg(val)+")")
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY created_at"
	}

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return rowsToCourses(rows), nil
}

func (repo courseRepository) CoursesByTeacher(ctx context.Context, teacherID string, _ ...core.DBExecutor) ([]course.Course, error) {
	var rows []courseRow
	const query = "SELECT * FROM course WHERE teacher_id = $1 ORDER BY created_at"
	if err := repo.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying teacher courses")
	}
	return rowsToCourses(rows), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, _ ...core.DBExecutor) (course.Course, error) {
	sets := []string{"updated_at = $2"}
	args := []interface{}{crs.ID, crs.UpdatedAt.UTC()}

	arg := func(val interface{}) string {
		args = append(args, val)
		return "$" + strconv.Itoa(len(args))
	}
	if crs.Title != "" {
		sets = append(sets, "title = "+arg(crs.Title))
	}
	if crs.Description != "" {
		sets = append(sets, "description = "+arg(crs.Description))
	}

	query := "UPDATE course SET " + strings.Join(sets, ", ") + " WHERE id = $1"
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, crs.ID)
}

// DeleteCourse relies on the lesson and enrollment FKs being ON DELETE CASCADE.
func (repo courseRepository) DeleteCourse(ctx context.Context, id string, _ ...core.DBExecutor) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM course WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson, _ ...core.DBExecutor) (course.Lesson, error) {
	lsn.ID = uuid.New().String()
	row := newLessonRow(lsn)

	const query = `
INSERT INTO lesson (id, course_id, title, body, file_ref, file_name, created_at, updated_at)
VALUES (:id, :course_id, :title, :body, :file_ref, :file_name, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return row.lesson(), nil
}

func (repo courseRepository) GetLesson(ctx context.Context, id string, _ ...core.DBExecutor) (course.Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Lesson{}, course.ErrLessonNotFound
	}

	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM lesson WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return course.Lesson{}, course.ErrLessonNotFound
		}
		return course.Lesson{}, errors.Wrap(err, "finding lesson")
	}
	return row.lesson(), nil
}

func (repo courseRepository) LessonsByCourse(ctx context.Context, courseID string, _ ...core.DBExecutor) ([]course.Lesson, error) {
	var rows []lessonRow
	const query = "SELECT * FROM lesson WHERE course_id = $1 ORDER BY created_at"
	if err := repo.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course lessons")
	}
	return rowsToLessons(rows), nil
}

func (repo courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson, _ ...core.DBExecutor) (course.Lesson, error) {
	row := newLessonRow(lsn)

	const query = `
UPDATE lesson SET title = :title, body = :body, file_ref = :file_ref, file_name = :file_name, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	return row.lesson(), nil
}

func (repo courseRepository) DeleteLesson(ctx context.Context, id string, _ ...core.DBExecutor) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM lesson WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return nil
}
