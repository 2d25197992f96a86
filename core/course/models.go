package course

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TeacherID   string    `json:"teacher_id"` // owner; fixed at creation
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Lesson struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	FileRef   string    `json:"-"` // opaque storage reference
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (l *Lesson) HasFile() bool {
	return l.FileRef != ""
}

// FileUpload carries an uploaded file into the catalog.
type FileUpload struct {
	Name    string
	Content io.Reader
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// The owning teacher can never change.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(origCourse Course, validate *validator.Validate) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = origCourse.Title
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = origCourse.Description
	}
	return validate.Struct(uc)
}

// NewLesson contains information needed to create a new Lesson.
// Body is optional; an attached file (also optional) is provided separately.
type NewLesson struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Body = core.CleanString(nl.Body)
	return validate.Struct(nl)
}

// UpdateLesson defines what information may be provided to modify an existing Lesson.
// A nil Body keeps the current one; an empty non-nil Body clears it.
type UpdateLesson struct {
	Title string  `json:"title"`
	Body  *string `json:"body"`
}

func (ul *UpdateLesson) Validate(origLesson Lesson, validate *validator.Validate) error {
	if title := core.CleanString(ul.Title); title != "" {
		ul.Title = title
	} else {
		ul.Title = origLesson.Title
	}
	if ul.Body != nil {
		body := core.CleanString(*ul.Body)
		ul.Body = &body
	}
	return validate.Struct(ul)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
