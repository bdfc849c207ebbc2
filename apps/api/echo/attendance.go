package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core/attendance"
)

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}
	staff := staffMiddleware()

	g.GET("/lessons", api.lessonsForDate, staff)
	g.GET("/roster", api.roster, staff)
	g.GET("/status", api.status, staff)
	g.POST("/take", api.take, staff)

	g.GET("/week", api.currentWeek)
	g.GET("/students/:id/summary", api.studentSummary)
}

func (api *attendanceApi) lessonsForDate(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	lessons, err := api.svc.LessonsForDate(ctx.Request().Context(), p, ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "listing lessons for date")
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *attendanceApi) roster(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	roster, err := api.svc.GetRoster(ctx.Request().Context(), p, ctx.QueryParam("lesson_id"), ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "getting roster")
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *attendanceApi) status(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.GetStatus(ctx.Request().Context(), p, ctx.QueryParam("lesson_id"), ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "getting attendance status")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *attendanceApi) take(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data attendance.TakeAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TakeAttendance")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.TakeAttendance(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "taking attendance")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) currentWeek(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	rows, err := api.svc.CurrentWeek(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing week attendance")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *attendanceApi) studentSummary(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.StudentSummary(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "summarizing student attendance")
	}
	return ctx.JSON(http.StatusOK, summary)
}
