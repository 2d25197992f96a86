package enroll

import "time"

// Enrollment grants a student access to a course's lessons.
// The (StudentID, CourseID) pair is unique.
type Enrollment struct {
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}
