package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/authz"
	"github.com/trezcool/shule/core/course"
)

// getLesson loads the lesson at :id along with its course, the authorization
// target for all lesson-scoped actions.
func (api *courseApi) getLesson(ctx echo.Context) (course.Lesson, course.Course, error) {
	rctx := ctx.Request().Context()

	lsn, err := api.svc.GetLesson(rctx, ctx.Param("id"))
	if err != nil {
		return course.Lesson{}, course.Course{}, errors.Wrap(err, "finding lesson by ID")
	}
	crs, err := api.svc.GetCourse(rctx, lsn.CourseID)
	if err != nil {
		return course.Lesson{}, course.Course{}, errors.Wrap(err, "finding lesson's course")
	}
	return lsn, crs, nil
}

// Handlers

func (api *courseApi) queryLessons(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionViewLesson, authz.Target{Course: &crs}); err != nil {
		return err
	}

	lessons, err := api.svc.LessonsByCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course lessons")
	}
	if lessons == nil {
		lessons = []course.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) createLesson(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionCreateLesson, authz.Target{Course: &crs}); err != nil {
		return err
	}

	data := course.NewLesson{
		Title: ctx.FormValue("title"),
		Body:  ctx.FormValue("body"),
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	var upload *course.FileUpload
	if fh, fErr := ctx.FormFile("file"); fErr == nil {
		if fh.Size > api.conf.Uploads.MaxSize {
			return errFileTooLarge
		}
		src, oErr := fh.Open()
		if oErr != nil {
			return errors.Wrap(oErr, "opening uploaded file")
		}
		defer src.Close()
		upload = &course.FileUpload{Name: fh.Filename, Content: src}
	}

	lsn, err := api.svc.CreateLesson(ctx.Request().Context(), crs.ID, data, upload)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *courseApi) retrieveLesson(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	lsn, crs, err := api.getLesson(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionViewLesson, authz.Target{Course: &crs, Lesson: &lsn}); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) updateLesson(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	lsn, crs, err := api.getLesson(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionEditLesson, authz.Target{Course: &crs, Lesson: &lsn}); err != nil {
		return err
	}

	var data course.UpdateLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err = data.Validate(lsn, api.validate); err != nil {
		return err
	}

	lsn, err = api.svc.UpdateLesson(ctx.Request().Context(), lsn.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) destroyLesson(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	lsn, crs, err := api.getLesson(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionDeleteLesson, authz.Target{Course: &crs, Lesson: &lsn}); err != nil {
		return err
	}

	if err = api.svc.DeleteLesson(ctx.Request().Context(), lsn.ID); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) downloadLessonFile(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	lsn, crs, err := api.getLesson(ctx)
	if err != nil {
		return err
	}
	if err = api.authorize(ctx, actor, authz.ActionDownloadLessonFile, authz.Target{Course: &crs, Lesson: &lsn}); err != nil {
		return err
	}

	src, err := api.contentSvc.OpenLessonFile(ctx.Request().Context(), lsn)
	if err != nil {
		return errors.Wrap(err, "opening lesson file")
	}
	defer src.Close()

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, lsn.FileName),
	)
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, src)
}
