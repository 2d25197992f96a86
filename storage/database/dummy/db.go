package dummydb

import (
	"sync"

	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/enroll"
	"github.com/trezcool/shule/core/user"
)

// DB is an in-memory stand-in for the real database, used in tests.
// A single lock guards all tables so cascading deletes stay atomic.
type DB struct {
	mutex       sync.RWMutex
	users       map[string]*user.User
	courses     map[string]*course.Course
	lessons     map[string]*course.Lesson
	enrollments []*enroll.Enrollment // insertion ordered
}

func Open() (*DB, error) {
	db := &DB{
		users:   make(map[string]*user.User),
		courses: make(map[string]*course.Course),
		lessons: make(map[string]*course.Lesson),
	}
	return db, nil
}
