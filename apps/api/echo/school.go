package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/school"
)

var (
	subjectOrderings = map[string]string{"name": "name"}
	classOrderings   = map[string]string{"name": "name", "capacity": "capacity"}
	eventOrderings   = map[string]string{
		"title":      "title",
		"start_time": "start_time",
		"end_time":   "end_time",
	}
	announcementOrderings = map[string]string{
		"title":             "title",
		"announcement_date": "announcement_date",
	}
)

type schoolApi struct {
	svc      school.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, svc school.Service, conf *core.Config, validate *validator.Validate) {
	api := schoolApi{
		svc:      svc,
		conf:     conf,
		validate: validate,
	}
	admin := adminMiddleware()

	g.GET("/grades", api.queryGrades)
	g.POST("/grades", api.createGrade, admin)

	sg := g.Group("/subjects")
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject, admin)
	sg.PUT("/:id", api.updateSubject, admin)
	sg.DELETE("/:id", api.destroySubject, admin)

	cg := g.Group("/classes")
	cg.GET("", api.queryClasses)
	cg.GET("/:id", api.retrieveClass)
	cg.POST("", api.createClass, admin)
	cg.PUT("/:id", api.updateClass, admin)
	cg.DELETE("/:id", api.destroyClass, admin)

	eg := g.Group("/events")
	eg.GET("", api.queryEvents)
	eg.POST("", api.createEvent, admin)
	eg.PUT("/:id", api.updateEvent, admin)
	eg.DELETE("/:id", api.destroyEvent, admin)

	ag := g.Group("/announcements")
	ag.GET("", api.queryAnnouncements)
	ag.POST("", api.createAnnouncement, admin)
	ag.PUT("/:id", api.updateAnnouncement, admin)
	ag.DELETE("/:id", api.destroyAnnouncement, admin)
	ag.POST("/:id/pdf", api.setAnnouncementPDF, admin)
}

// Grades

func (api *schoolApi) queryGrades(ctx echo.Context) error {
	grades, err := api.svc.ListGrades(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *schoolApi) createGrade(ctx echo.Context) error {
	var data school.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.CreateGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

// Subjects

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter school.SubjectFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	subjects, pg, err := api.svc.ListSubjects(ctx.Request().Context(), p, filter, bindOrdering(ctx, subjectOrderings))
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, newListResponse(subjects, pg))
}

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.SaveSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *schoolApi) updateSubject(ctx echo.Context) error {
	var data school.SaveSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.UpdateSubject(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolApi) destroySubject(ctx echo.Context) error {
	res, err := api.svc.DeleteSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.JSON(http.StatusOK, res)
}

// Classes

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter school.ClassFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	classes, pg, err := api.svc.ListClasses(ctx.Request().Context(), p, filter, bindOrdering(ctx, classOrderings))
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, newListResponse(classes, pg))
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetClass(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.SaveClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *schoolApi) updateClass(ctx echo.Context) error {
	var data school.SaveClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateClass(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) destroyClass(ctx echo.Context) error {
	res, err := api.svc.DeleteClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.JSON(http.StatusOK, res)
}

// Events

func (api *schoolApi) queryEvents(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter school.EventFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	events, pg, err := api.svc.ListEvents(ctx.Request().Context(), p, filter, bindOrdering(ctx, eventOrderings))
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, newListResponse(events, pg))
}

func (api *schoolApi) createEvent(ctx echo.Context) error {
	var data school.SaveEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.CreateEvent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *schoolApi) updateEvent(ctx echo.Context) error {
	var data school.SaveEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.UpdateEvent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *schoolApi) destroyEvent(ctx echo.Context) error {
	if err := api.svc.DeleteEvent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Announcements

func (api *schoolApi) queryAnnouncements(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter school.AnnouncementFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	items, pg, err := api.svc.ListAnnouncements(ctx.Request().Context(), p, filter, bindOrdering(ctx, announcementOrderings))
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	return ctx.JSON(http.StatusOK, newListResponse(items, pg))
}

func (api *schoolApi) createAnnouncement(ctx echo.Context) error {
	var data school.SaveAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.CreateAnnouncement(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *schoolApi) updateAnnouncement(ctx echo.Context) error {
	var data school.SaveAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.UpdateAnnouncement(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *schoolApi) setAnnouncementPDF(ctx echo.Context) error {
	_, data, err := readUpload(ctx, api.conf.Upload.MaxPDFSize)
	if err != nil {
		return err
	}
	a, err := api.svc.SetAnnouncementPDF(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "attaching announcement pdf")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *schoolApi) destroyAnnouncement(ctx echo.Context) error {
	if err := api.svc.DeleteAnnouncement(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}
