package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/authz"
	"github.com/trezcool/shule/core/content"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/enroll"
	"github.com/trezcool/shule/core/user"
)

// courseOrderingFields are the course columns clients may order listings by.
var courseOrderingFields = []string{"title", "created_at", "updated_at"}

type courseApi struct {
	conf       *core.Config
	usrSvc     user.Service
	svc        course.Service
	enrollSvc  enroll.Service
	contentSvc content.Service
	authz      *authz.Evaluator
	validate   *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := courseApi{
		conf:       deps.Conf,
		usrSvc:     deps.UserSvc,
		svc:        deps.CourseSvc,
		enrollSvc:  deps.EnrollSvc,
		contentSvc: deps.ContentSvc,
		authz:      deps.Authz,
		validate:   deps.Validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/teaching", api.queryTeaching)
	cg.GET("/enrolled", api.queryEnrolled)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/students", api.queryStudents)
	dg.POST("/enroll", api.enroll)
	dg.DELETE("/enroll", api.unenroll)
	dg.GET("/lessons", api.queryLessons)
	dg.POST("/lessons", api.createLesson)

	lg := g.Group("/lessons", jwt)
	lg.GET("/:id", api.retrieveLesson)
	lg.PUT("/:id", api.updateLesson)
	lg.DELETE("/:id", api.destroyLesson)
	lg.GET("/:id/file", api.downloadLessonFile)
}

// authorize asks the evaluator and translates a denial into the HTTP error
// the client sees. A nil error means the actor may proceed.
func (api *courseApi) authorize(ctx echo.Context, actor user.User, action authz.Action, tgt authz.Target) error {
	d, err := api.authz.Authorize(ctx.Request().Context(), &actor, action, tgt)
	if err != nil {
		return errors.Wrapf(err, "authorizing %s", action)
	}
	if !d.Allowed {
		return denialHTTPError(d)
	}
	return nil
}

func (api *courseApi) getCourse(ctx echo.Context) (course.Course, error) {
	crs, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	return crs, errors.Wrap(err, "finding course by ID")
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.authorize(ctx, actor, authz.ActionCreateCourse, authz.Target{}); err != nil {
		return err
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), actor.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}

	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	if _, err := getContextUser(ctx, api.usrSvc); err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, courseOrderingFields...)

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) queryTeaching(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !actor.IsTeacher() {
		return denialHTTPError(authz.Deny(authz.ReasonWrongRole))
	}

	courses, err := api.svc.CoursesByTeacher(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying taught courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) queryEnrolled(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !actor.IsStudent() {
		return denialHTTPError(authz.Deny(authz.ReasonWrongRole))
	}

	courses, err := api.enrollSvc.CoursesForStudent(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrolled courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	if _, err := getContextUser(ctx, api.usrSvc); err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionEditCourse, authz.Target{Course: &crs}); err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(crs, api.validate); err != nil {
		return err
	}

	crs, err = api.svc.UpdateCourse(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionDeleteCourse, authz.Target{Course: &crs}); err != nil {
		return err
	}

	if err = api.svc.DeleteCourse(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryStudents(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionViewRoster, authz.Target{Course: &crs}); err != nil {
		return err
	}

	students, err := api.enrollSvc.StudentsForCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course roster")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.authorize(ctx, actor, authz.ActionEnroll, authz.Target{}); err != nil {
		return err
	}

	enr, err := api.enrollSvc.Enroll(ctx.Request().Context(), actor.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.authorize(ctx, actor, authz.ActionUnenroll, authz.Target{}); err != nil {
		return err
	}

	if err = api.enrollSvc.Unenroll(ctx.Request().Context(), actor.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.NoContent(http.StatusNoContent)
}
