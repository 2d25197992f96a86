package dummydb

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/enroll"
	"github.com/trezcool/shule/core/user"
)

type enrollmentRepository struct {
	db *DB
}

var _ enroll.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) find(studentID, courseID string) *enroll.Enrollment {
	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID && enr.CourseID == courseID {
			return enr
		}
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, enr enroll.Enrollment, _ ...core.DBExecutor) (enroll.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[enr.CourseID]; !ok {
		return enroll.Enrollment{}, enroll.ErrCourseNotFound
	}
	// unique pair; a repeated enroll returns the existing row unchanged
	if existing := repo.find(enr.StudentID, enr.CourseID); existing != nil {
		return *existing, nil
	}
	repo.db.enrollments = append(repo.db.enrollments, &enr)
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, studentID, courseID string, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	remaining := repo.db.enrollments[:0]
	for _, enr := range repo.db.enrollments {
		if !(enr.StudentID == studentID && enr.CourseID == courseID) {
			remaining = append(remaining, enr)
		}
	}
	repo.db.enrollments = remaining
	return nil
}

func (repo *enrollmentRepository) IsEnrolled(_ context.Context, studentID, courseID string, _ ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.find(studentID, courseID) != nil, nil
}

func (repo *enrollmentRepository) CoursesForStudent(_ context.Context, studentID string, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, enr := range repo.db.enrollments { // insertion ordered
		if enr.StudentID != studentID {
			continue
		}
		if crs, ok := repo.db.courses[enr.CourseID]; ok {
			courses = append(courses, *crs)
		}
	}
	return courses, nil
}

func (repo *enrollmentRepository) StudentsForCourse(_ context.Context, courseID string, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]user.User, 0)
	for _, enr := range repo.db.enrollments { // insertion ordered
		if enr.CourseID != courseID {
			continue
		}
		if usr, ok := repo.db.users[enr.StudentID]; ok {
			students = append(students, *usr)
		}
	}
	return students, nil
}
