// Package authz is the single place where "who may do what" is decided.
// Every handler resolves its actor and target explicitly and asks the
// Evaluator; no ambient session state is ever consulted.
package authz

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/user"
)

type Action string

const (
	ActionCreateCourse       Action = "create_course"
	ActionEditCourse         Action = "edit_course"
	ActionDeleteCourse       Action = "delete_course"
	ActionCreateLesson       Action = "create_lesson"
	ActionEditLesson         Action = "edit_lesson"
	ActionDeleteLesson       Action = "delete_lesson"
	ActionViewLesson         Action = "view_lesson"
	ActionDownloadLessonFile Action = "download_lesson_file"
	ActionEnroll             Action = "enroll"
	ActionUnenroll           Action = "unenroll"
	ActionViewRoster         Action = "view_roster"
)

// Reason explains a denial. A Deny decision always carries exactly one.
type Reason string

const (
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonWrongRole        Reason = "wrong_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonNotEnrolled      Reason = "not_enrolled"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Target identifies what an action is aimed at. Course-scoped actions need
// Course set; lesson-scoped actions need both Course and Lesson, with
// Course being the lesson's course.
type Target struct {
	Course *course.Course
	Lesson *course.Lesson
}

var errMissingTargetCourse = errors.New("authz: target course required for action")

// EnrollmentChecker answers whether a student is enrolled in a course.
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

// Evaluator decides requests against the current store state. It performs
// no mutations of its own.
type Evaluator struct {
	enrollments EnrollmentChecker
}

func NewEvaluator(enrollments EnrollmentChecker) *Evaluator {
	return &Evaluator{enrollments: enrollments}
}

// Authorize evaluates (actor, action, target). A nil or inactive actor is
// treated as unauthenticated. The returned error is only ever a store
// failure, never a denial.
func (ev *Evaluator) Authorize(ctx context.Context, actor *user.User, action Action, tgt Target) (Decision, error) {
	if actor == nil || actor.ID == "" || !actor.IsActive {
		return Deny(ReasonNotAuthenticated), nil
	}

	switch action {
	case ActionCreateCourse:
		if !actor.IsTeacher() {
			return Deny(ReasonWrongRole), nil
		}
		return Allow(), nil

	case ActionEditCourse, ActionDeleteCourse, ActionViewRoster,
		ActionCreateLesson, ActionEditLesson, ActionDeleteLesson:
		if !actor.IsTeacher() {
			return Deny(ReasonWrongRole), nil
		}
		return ev.requireOwnership(actor, tgt)

	case ActionViewLesson, ActionDownloadLessonFile:
		if actor.IsTeacher() {
			return ev.requireOwnership(actor, tgt)
		}
		return ev.requireEnrollment(ctx, actor, tgt)

	case ActionEnroll, ActionUnenroll:
		if !actor.IsStudent() {
			return Deny(ReasonWrongRole), nil
		}
		return Allow(), nil
	}

	return Decision{}, errors.Errorf("authz: unknown action %q", action)
}

func (ev *Evaluator) requireOwnership(actor *user.User, tgt Target) (Decision, error) {
	if tgt.Course == nil {
		return Decision{}, errMissingTargetCourse
	}
	if tgt.Course.TeacherID != actor.ID {
		return Deny(ReasonNotOwner), nil
	}
	return Allow(), nil
}

func (ev *Evaluator) requireEnrollment(ctx context.Context, actor *user.User, tgt Target) (Decision, error) {
	if !actor.IsStudent() {
		return Deny(ReasonWrongRole), nil
	}
	if tgt.Course == nil {
		return Decision{}, errMissingTargetCourse
	}

	enrolled, err := ev.enrollments.IsEnrolled(ctx, actor.ID, tgt.Course.ID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Deny(ReasonNotEnrolled), nil
	}
	return Allow(), nil
}
