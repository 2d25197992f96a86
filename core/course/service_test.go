package course_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/enroll"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database/dummy"
)

// fakeFileStorage records saved blobs in memory.
type fakeFileStorage struct {
	blobs map[string][]byte
}

var _ core.FileStorage = (*fakeFileStorage)(nil)

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{blobs: make(map[string][]byte)}
}

func (s *fakeFileStorage) Save(_ context.Context, name string, content io.Reader) (string, error) {
	data, err := ioutil.ReadAll(content)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("%d-%s", len(s.blobs), name)
	s.blobs[ref] = data
	return ref, nil
}

func (s *fakeFileStorage) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	data, ok := s.blobs[ref]
	if !ok {
		return nil, core.ErrFileMissing
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeFileStorage) Delete(_ context.Context, ref string) error {
	if _, ok := s.blobs[ref]; !ok {
		return core.ErrFileMissing
	}
	delete(s.blobs, ref)
	return nil
}

func setup(t *testing.T) (course.Service, *fakeFileStorage, *dummydb.DB) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	files := newFakeFileStorage()
	return course.NewService(dummydb.NewCourseRepository(db), files), files, db
}

func createUser(t *testing.T, db *dummydb.DB, name, email, role string) user.User {
	usr, err := dummydb.NewUserRepository(db).CreateUser(context.Background(), user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func Test_service_CreateLesson(t *testing.T) {
	svc, files, db := setup(t)
	ctx := context.Background()

	teacher := createUser(t, db, "Teacher", "teacher@test.cd", user.RoleTeacher)
	crs, err := svc.CreateCourse(ctx, teacher.ID, course.NewCourse{Title: "Algebra", Description: "Numbers"})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}

	t.Run("missing course", func(t *testing.T) {
		_, err := svc.CreateLesson(ctx, "nope", course.NewLesson{Title: "Intro"}, nil)
		if errors.Cause(err) != course.ErrNotFound {
			t.Errorf("CreateLesson() error = %v; want %v", err, course.ErrNotFound)
		}
	})

	t.Run("body only", func(t *testing.T) {
		lsn, err := svc.CreateLesson(ctx, crs.ID, course.NewLesson{Title: "Intro", Body: "Welcome"}, nil)
		if err != nil {
			t.Fatalf("CreateLesson() failed: %v", err)
		}
		if lsn.HasFile() {
			t.Error("CreateLesson() unexpected file ref")
		}
	})

	t.Run("with file", func(t *testing.T) {
		upload := &course.FileUpload{Name: "notes.pdf", Content: strings.NewReader("pdf bytes")}
		lsn, err := svc.CreateLesson(ctx, crs.ID, course.NewLesson{Title: "Notes"}, upload)
		if err != nil {
			t.Fatalf("CreateLesson() failed: %v", err)
		}
		if !lsn.HasFile() || lsn.FileName != "notes.pdf" {
			t.Errorf("CreateLesson() file not recorded: %+v", lsn)
		}
		if _, ok := files.blobs[lsn.FileRef]; !ok {
			t.Error("CreateLesson() blob not saved")
		}
	})
}

func Test_service_UpdateLesson_body(t *testing.T) {
	svc, _, db := setup(t)
	ctx := context.Background()

	teacher := createUser(t, db, "Teacher", "teacher@test.cd", user.RoleTeacher)
	crs, err := svc.CreateCourse(ctx, teacher.ID, course.NewCourse{Title: "Algebra", Description: "Numbers"})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	lsn, err := svc.CreateLesson(ctx, crs.ID, course.NewLesson{Title: "Intro", Body: "Welcome"}, nil)
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}

	// nil Body keeps the current one
	lsn, err = svc.UpdateLesson(ctx, lsn.ID, course.UpdateLesson{Title: "Intro 2"})
	if err != nil {
		t.Fatalf("UpdateLesson() failed: %v", err)
	}
	if lsn.Title != "Intro 2" || lsn.Body != "Welcome" {
		t.Errorf("UpdateLesson() = %+v; want body kept", lsn)
	}

	// empty non-nil Body clears it
	empty := ""
	lsn, err = svc.UpdateLesson(ctx, lsn.ID, course.UpdateLesson{Title: lsn.Title, Body: &empty})
	if err != nil {
		t.Fatalf("UpdateLesson() failed: %v", err)
	}
	if lsn.Body != "" {
		t.Errorf("UpdateLesson() body = %q; want cleared", lsn.Body)
	}
}

func Test_service_DeleteCourse_cascades(t *testing.T) {
	svc, files, db := setup(t)
	ctx := context.Background()

	teacher := createUser(t, db, "Teacher", "teacher@test.cd", user.RoleTeacher)
	student := createUser(t, db, "Student", "student@test.cd", user.RoleStudent)
	crs, err := svc.CreateCourse(ctx, teacher.ID, course.NewCourse{Title: "Algebra", Description: "Numbers"})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	lsn, err := svc.CreateLesson(ctx, crs.ID, course.NewLesson{Title: "Notes"},
		&course.FileUpload{Name: "notes.pdf", Content: strings.NewReader("pdf bytes")})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}

	enrollSvc := enroll.NewService(dummydb.NewEnrollmentRepository(db))
	if _, err = enrollSvc.Enroll(ctx, student.ID, crs.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	if err = svc.DeleteCourse(ctx, crs.ID); err != nil {
		t.Fatalf("DeleteCourse() failed: %v", err)
	}

	if _, err = svc.GetCourse(ctx, crs.ID); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("GetCourse() error = %v; want %v", err, course.ErrNotFound)
	}
	if _, err = svc.GetLesson(ctx, lsn.ID); errors.Cause(err) != course.ErrLessonNotFound {
		t.Errorf("GetLesson() error = %v; want %v", err, course.ErrLessonNotFound)
	}
	if enrolled, _ := enrollSvc.IsEnrolled(ctx, student.ID, crs.ID); enrolled {
		t.Error("IsEnrolled() = true after DeleteCourse()")
	}
	if _, ok := files.blobs[lsn.FileRef]; ok {
		t.Error("DeleteCourse() left lesson blob behind")
	}
}

func Test_service_DeleteLesson(t *testing.T) {
	svc, files, db := setup(t)
	ctx := context.Background()

	teacher := createUser(t, db, "Teacher", "teacher@test.cd", user.RoleTeacher)
	crs, err := svc.CreateCourse(ctx, teacher.ID, course.NewCourse{Title: "Algebra", Description: "Numbers"})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	lsn, err := svc.CreateLesson(ctx, crs.ID, course.NewLesson{Title: "Notes"},
		&course.FileUpload{Name: "notes.pdf", Content: strings.NewReader("pdf bytes")})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}

	if err = svc.DeleteLesson(ctx, lsn.ID); err != nil {
		t.Fatalf("DeleteLesson() failed: %v", err)
	}
	if _, ok := files.blobs[lsn.FileRef]; ok {
		t.Error("DeleteLesson() left blob behind")
	}
	// deleting an already deleted lesson is not an error
	if err = svc.DeleteLesson(ctx, lsn.ID); err != nil {
		t.Errorf("DeleteLesson() repeat error = %v; want nil", err)
	}
}
