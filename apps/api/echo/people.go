package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

var personOrderings = map[string]string{
	"username":   "username",
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"created_at": "created_at",
}

type userApi struct {
	svc      user.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, svc user.Service, conf *core.Config, validate *validator.Validate) {
	api := userApi{
		svc:      svc,
		conf:     conf,
		validate: validate,
	}
	admin := adminMiddleware()

	tg := g.Group("/teachers")
	tg.GET("", api.queryTeachers)
	tg.GET("/count", api.countTeachers)
	tg.GET("/:id", api.retrieveTeacher)
	tg.POST("", api.createTeacher, admin)
	tg.PUT("/:id", api.updateTeacher, admin)
	tg.DELETE("/:id", api.destroyTeacher, admin)
	tg.POST("/:id/avatar", api.setTeacherAvatar)

	sg := g.Group("/students")
	sg.GET("", api.queryStudents)
	sg.GET("/count", api.countStudents)
	sg.GET("/count-by-sex", api.countStudentsBySex)
	sg.GET("/:id", api.retrieveStudent)
	sg.POST("", api.createStudent, admin)
	sg.PUT("/:id", api.updateStudent, admin)
	sg.DELETE("/:id", api.destroyStudent, admin)
	sg.POST("/:id/avatar", api.setStudentAvatar)

	pg := g.Group("/parents")
	pg.GET("", api.queryParents)
	pg.GET("/count", api.countParents)
	pg.GET("/:id", api.retrieveParent)
	pg.POST("", api.createParent, admin)
	pg.PUT("/:id", api.updateParent, admin)
	pg.DELETE("/:id", api.destroyParent, admin)
}

// Teachers

func (api *userApi) queryTeachers(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter user.TeacherFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	teachers, pg, err := api.svc.ListTeachers(ctx.Request().Context(), p, filter, bindOrdering(ctx, personOrderings))
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, newListResponse(teachers, pg))
}

func (api *userApi) countTeachers(ctx echo.Context) error {
	count, err := api.svc.CountTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting teachers")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: count})
}

func (api *userApi) retrieveTeacher(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.GetTeacher(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *userApi) createTeacher(ctx echo.Context) error {
	var data user.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *userApi) updateTeacher(ctx echo.Context) error {
	var data user.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.UpdateTeacher(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *userApi) destroyTeacher(ctx echo.Context) error {
	res, err := api.svc.DeleteTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *userApi) setTeacherAvatar(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	filename, data, err := readUpload(ctx, api.conf.Upload.MaxImageSize)
	if err != nil {
		return err
	}
	t, err := api.svc.SetTeacherAvatar(ctx.Request().Context(), p, ctx.Param("id"), filename, data)
	if err != nil {
		return errors.Wrap(err, "setting teacher avatar")
	}
	return ctx.JSON(http.StatusOK, t)
}

// Students

func (api *userApi) queryStudents(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter user.StudentFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	students, pg, err := api.svc.ListStudents(ctx.Request().Context(), p, filter, bindOrdering(ctx, personOrderings))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, newListResponse(students, pg))
}

func (api *userApi) countStudents(ctx echo.Context) error {
	count, err := api.svc.CountStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: count})
}

func (api *userApi) countStudentsBySex(ctx echo.Context) error {
	counts, err := api.svc.CountStudentsBySex(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting students by sex")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *userApi) retrieveStudent(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetStudent(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *userApi) createStudent(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *userApi) updateStudent(ctx echo.Context) error {
	var data user.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *userApi) destroyStudent(ctx echo.Context) error {
	res, err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *userApi) setStudentAvatar(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	filename, data, err := readUpload(ctx, api.conf.Upload.MaxImageSize)
	if err != nil {
		return err
	}
	s, err := api.svc.SetStudentAvatar(ctx.Request().Context(), p, ctx.Param("id"), filename, data)
	if err != nil {
		return errors.Wrap(err, "setting student avatar")
	}
	return ctx.JSON(http.StatusOK, s)
}

// Parents

func (api *userApi) queryParents(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var filter user.ParentFilter
	if err := bindQuery(ctx, &filter); err != nil {
		return err
	}

	parents, pg, err := api.svc.ListParents(ctx.Request().Context(), p, filter, bindOrdering(ctx, personOrderings))
	if err != nil {
		return errors.Wrap(err, "querying parents")
	}
	return ctx.JSON(http.StatusOK, newListResponse(parents, pg))
}

func (api *userApi) countParents(ctx echo.Context) error {
	count, err := api.svc.CountParents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting parents")
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: count})
}

func (api *userApi) retrieveParent(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	par, err := api.svc.GetParent(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting parent")
	}
	return ctx.JSON(http.StatusOK, par)
}

func (api *userApi) createParent(ctx echo.Context) error {
	var data user.NewParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	par, err := api.svc.CreateParent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating parent")
	}
	return ctx.JSON(http.StatusCreated, par)
}

func (api *userApi) updateParent(ctx echo.Context) error {
	var data user.UpdateParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	par, err := api.svc.UpdateParent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating parent")
	}
	return ctx.JSON(http.StatusOK, par)
}

func (api *userApi) destroyParent(ctx echo.Context) error {
	res, err := api.svc.DeleteParent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting parent")
	}
	return ctx.JSON(http.StatusOK, res)
}
