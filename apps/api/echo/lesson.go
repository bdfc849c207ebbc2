package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
)

var (
	lessonOrderings = map[string]string{
		"name":       "name",
		"day":        "day",
		"start_time": "start_time",
	}
	examOrderings = map[string]string{
		"title":      "title",
		"start_time": "start_time",
	}
	assignmentOrderings = map[string]string{
		"title":      "title",
		"start_date": "start_date",
		"due_date":   "due_date",
	}
	resultOrderings = map[string]string{"score": "score"}
)

type lessonApi struct {
	svc      lesson.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerLessonAPI(g *echo.Group, svc lesson.Service, conf *core.Config, validate *validator.Validate) {
	api := lessonApi{
		svc:      svc,
		conf:     conf,
		validate: validate,
	}
	admin := adminMiddleware()
	staff := staffMiddleware()

	lg := g.Group("/lessons")
	lg.GET("", api.queryLessons)
	lg.GET("/:id", api.retrieveLesson)
	lg.POST("", api.createLesson, admin)
	lg.PUT("/:id", api.updateLesson, admin)
	lg.DELETE("/:id", api.destroyLesson, admin)

	// teachers are limited to their own lessons by the service
	eg := g.Group("/exams")
	eg.GET("", api.queryExams)
	eg.POST("", api.createExam, staff)
	eg.PUT("/:id", api.updateExam, staff)
	eg.DELETE("/:id", api.destroyExam, staff)

	ag := g.Group("/assignments")
	ag.GET("", api.queryAssignments)
	ag.POST("", api.createAssignment, staff)
	ag.PUT("/:id", api.updateAssignment, staff)
	ag.DELETE("/:id", api.destroyAssignment, staff)
	ag.POST("/:id/pdf", api.setAssignmentPDF, staff)

	rg := g.Group("/results")
	rg.GET("", api.queryResults)
	rg.POST("", api.createResult, staff)
	rg.PUT("/:id", api.updateResult, staff)
	rg.DELETE("/:id", api.destroyResult, staff)
}

// Lessons

func (api *lessonApi) queryLessons(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter lesson.LessonFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	lessons, pg, err := api.svc.ListLessons(ctx.Request().Context(), p, filter, bindOrdering(ctx, lessonOrderings))
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	return ctx.JSON(http.StatusOK, newListResponse(lessons, pg))
}

func (api *lessonApi) retrieveLesson(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	l, err := api.svc.GetLesson(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) createLesson(ctx echo.Context) error {
	var data lesson.SaveLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.CreateLesson(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *lessonApi) updateLesson(ctx echo.Context) error {
	var data lesson.SaveLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.UpdateLesson(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) destroyLesson(ctx echo.Context) error {
	res, err := api.svc.DeleteLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.JSON(http.StatusOK, res)
}

// Exams

func (api *lessonApi) queryExams(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter lesson.ExamFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	exams, pg, err := api.svc.ListExams(ctx.Request().Context(), p, filter, bindOrdering(ctx, examOrderings))
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, newListResponse(exams, pg))
}

func (api *lessonApi) createExam(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data lesson.SaveExam
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveExam")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.CreateExam(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *lessonApi) updateExam(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data lesson.SaveExam
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveExam")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.UpdateExam(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating exam")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *lessonApi) destroyExam(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.DeleteExam(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	return ctx.JSON(http.StatusOK, res)
}

// Assignments

func (api *lessonApi) queryAssignments(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter lesson.AssignmentFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	items, pg, err := api.svc.ListAssignments(ctx.Request().Context(), p, filter, bindOrdering(ctx, assignmentOrderings))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, newListResponse(items, pg))
}

func (api *lessonApi) createAssignment(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data lesson.SaveAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.CreateAssignment(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *lessonApi) updateAssignment(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data lesson.SaveAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.UpdateAssignment(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *lessonApi) setAssignmentPDF(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	_, data, err := readUpload(ctx, api.conf.Upload.MaxPDFSize)
	if err != nil {
		return err
	}
	a, err := api.svc.SetAssignmentPDF(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "attaching assignment pdf")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *lessonApi) destroyAssignment(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.DeleteAssignment(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, res)
}

// Results

func (api *lessonApi) queryResults(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter lesson.ResultFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	results, pg, err := api.svc.ListResults(ctx.Request().Context(), p, filter, bindOrdering(ctx, resultOrderings))
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, newListResponse(results, pg))
}

func (api *lessonApi) createResult(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data lesson.SaveResult
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveResult")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.CreateResult(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating result")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *lessonApi) updateResult(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data lesson.SaveResult
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveResult")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.UpdateResult(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating result")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *lessonApi) destroyResult(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteResult(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting result")
	}
	return ctx.NoContent(http.StatusNoContent)
}
