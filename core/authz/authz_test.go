package authz

import (
	"context"
	"testing"

	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/user"
)

type fakeEnrollments map[[2]string]bool // (studentID, courseID)

func (f fakeEnrollments) IsEnrolled(_ context.Context, studentID, courseID string) (bool, error) {
	return f[[2]string{studentID, courseID}], nil
}

func TestEvaluator_Authorize(t *testing.T) {
	teacherA := user.User{ID: "t-a", Role: user.RoleTeacher, IsActive: true}
	teacherB := user.User{ID: "t-b", Role: user.RoleTeacher, IsActive: true}
	student := user.User{ID: "s-1", Role: user.RoleStudent, IsActive: true}
	stranger := user.User{ID: "s-2", Role: user.RoleStudent, IsActive: true}
	inactive := user.User{ID: "s-3", Role: user.RoleStudent, IsActive: false}

	crs := course.Course{ID: "c-1", TeacherID: teacherA.ID}
	lsn := course.Lesson{ID: "l-1", CourseID: crs.ID}
	tgt := Target{Course: &crs, Lesson: &lsn}

	ev := NewEvaluator(fakeEnrollments{
		{student.ID, crs.ID}: true,
	})

	tests := []struct {
		name       string
		actor      *user.User
		action     Action
		tgt        Target
		wantAllow  bool
		wantReason Reason
	}{
		{name: "nil actor", actor: nil, action: ActionViewLesson, tgt: tgt, wantReason: ReasonNotAuthenticated},
		{name: "empty actor", actor: &user.User{}, action: ActionViewLesson, tgt: tgt, wantReason: ReasonNotAuthenticated},
		{name: "inactive actor", actor: &inactive, action: ActionViewLesson, tgt: tgt, wantReason: ReasonNotAuthenticated},

		{name: "teacher creates course", actor: &teacherA, action: ActionCreateCourse, wantAllow: true},
		{name: "student creates course", actor: &student, action: ActionCreateCourse, wantReason: ReasonWrongRole},

		{name: "owner edits course", actor: &teacherA, action: ActionEditCourse, tgt: tgt, wantAllow: true},
		{name: "other teacher edits course", actor: &teacherB, action: ActionEditCourse, tgt: tgt, wantReason: ReasonNotOwner},
		{name: "student edits course", actor: &student, action: ActionEditCourse, tgt: tgt, wantReason: ReasonWrongRole},
		{name: "owner deletes course", actor: &teacherA, action: ActionDeleteCourse, tgt: tgt, wantAllow: true},
		{name: "other teacher deletes course", actor: &teacherB, action: ActionDeleteCourse, tgt: tgt, wantReason: ReasonNotOwner},

		{name: "owner creates lesson", actor: &teacherA, action: ActionCreateLesson, tgt: tgt, wantAllow: true},
		{name: "other teacher creates lesson", actor: &teacherB, action: ActionCreateLesson, tgt: tgt, wantReason: ReasonNotOwner},
		{name: "owner edits lesson", actor: &teacherA, action: ActionEditLesson, tgt: tgt, wantAllow: true},
		{name: "other teacher edits lesson", actor: &teacherB, action: ActionEditLesson, tgt: tgt, wantReason: ReasonNotOwner},
		{name: "student deletes lesson", actor: &student, action: ActionDeleteLesson, tgt: tgt, wantReason: ReasonWrongRole},

		{name: "owner views lesson", actor: &teacherA, action: ActionViewLesson, tgt: tgt, wantAllow: true},
		{name: "other teacher views lesson", actor: &teacherB, action: ActionViewLesson, tgt: tgt, wantReason: ReasonNotOwner},
		{name: "enrolled student views lesson", actor: &student, action: ActionViewLesson, tgt: tgt, wantAllow: true},
		{name: "stranger views lesson", actor: &stranger, action: ActionViewLesson, tgt: tgt, wantReason: ReasonNotEnrolled},
		{name: "enrolled student downloads file", actor: &student, action: ActionDownloadLessonFile, tgt: tgt, wantAllow: true},
		{name: "stranger downloads file", actor: &stranger, action: ActionDownloadLessonFile, tgt: tgt, wantReason: ReasonNotEnrolled},
		{name: "owner downloads file", actor: &teacherA, action: ActionDownloadLessonFile, tgt: tgt, wantAllow: true},

		{name: "student enrolls", actor: &student, action: ActionEnroll, wantAllow: true},
		{name: "teacher enrolls", actor: &teacherA, action: ActionEnroll, wantReason: ReasonWrongRole},
		{name: "student unenrolls", actor: &student, action: ActionUnenroll, wantAllow: true},
		{name: "teacher unenrolls", actor: &teacherA, action: ActionUnenroll, wantReason: ReasonWrongRole},

		{name: "owner views roster", actor: &teacherA, action: ActionViewRoster, tgt: tgt, wantAllow: true},
		{name: "other teacher views roster", actor: &teacherB, action: ActionViewRoster, tgt: tgt, wantReason: ReasonNotOwner},
		{name: "student views roster", actor: &student, action: ActionViewRoster, tgt: tgt, wantReason: ReasonWrongRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ev.Authorize(context.Background(), tt.actor, tt.action, tt.tgt)
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if d.Allowed != tt.wantAllow {
				t.Errorf("Authorize() allowed = %v; want %v (reason %q)", d.Allowed, tt.wantAllow, d.Reason)
			}
			if !tt.wantAllow && d.Reason != tt.wantReason {
				t.Errorf("Authorize() reason = %q; want %q", d.Reason, tt.wantReason)
			}
			if tt.wantAllow && d.Reason != "" {
				t.Errorf("Authorize() allow carries reason %q", d.Reason)
			}
		})
	}
}

func TestEvaluator_Authorize_unknownAction(t *testing.T) {
	ev := NewEvaluator(fakeEnrollments{})
	actor := user.User{ID: "t-a", Role: user.RoleTeacher, IsActive: true}

	if _, err := ev.Authorize(context.Background(), &actor, Action("lol"), Target{}); err == nil {
		t.Error("Authorize() expected error for unknown action")
	}
}

func TestEvaluator_Authorize_missingTarget(t *testing.T) {
	ev := NewEvaluator(fakeEnrollments{})
	actor := user.User{ID: "t-a", Role: user.RoleTeacher, IsActive: true}

	if _, err := ev.Authorize(context.Background(), &actor, ActionEditCourse, Target{}); err == nil {
		t.Error("Authorize() expected error for missing target course")
	}
}

func TestEvaluator_Authorize_unenrollAfterEnrollRevokesView(t *testing.T) {
	student := user.User{ID: "s-1", Role: user.RoleStudent, IsActive: true}
	crs := course.Course{ID: "c-1", TeacherID: "t-a"}
	tgt := Target{Course: &crs}

	enrollments := fakeEnrollments{{student.ID, crs.ID}: true}
	ev := NewEvaluator(enrollments)

	d, err := ev.Authorize(context.Background(), &student, ActionViewLesson, tgt)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if !d.Allowed {
		t.Fatalf("Authorize() enrolled student denied: %q", d.Reason)
	}

	delete(enrollments, [2]string{student.ID, crs.ID})

	d, err = ev.Authorize(context.Background(), &student, ActionViewLesson, tgt)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if d.Allowed || d.Reason != ReasonNotEnrolled {
		t.Errorf("Authorize() after unenroll = (%v, %q); want denial with %q", d.Allowed, d.Reason, ReasonNotEnrolled)
	}
}
