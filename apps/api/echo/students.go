package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
	"github.com/trezcool/vidyalaya/services/report"
)

var errUnreadableWorkbook = core.NewFieldError("file", "could not read the workbook, expected an .xlsx file")

type studentApi struct {
	svc      user.Service
	auth     *authenticator
	validate *validator.Validate
	logger   core.Logger
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := studentApi{
		svc:      s.deps.UserSvc,
		auth:     s.auth,
		validate: s.deps.Validate,
		logger:   s.deps.Logger,
	}

	sg := g.Group("/students", jwt, roleMiddleware(user.RoleAdmin))
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/import", api.importStudents)
	sg.GET("/class-sections", api.classSections)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	var filter user.StudentFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) importStudents(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewFieldError("file", "Please select a file to import")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	rows, err := report.ReadStudents(f)
	if err != nil {
		api.logger.Warn("reading students workbook", err)
		return errUnreadableWorkbook
	}

	res, err := api.svc.ImportStudents(ctx.Request().Context(), rows, api.validate)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) classSections(ctx echo.Context) error {
	css, err := api.svc.ClassSections(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying class-sections")
	}
	if css == nil {
		css = []string{}
	}
	return ctx.JSON(http.StatusOK, css)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data user.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	if user.IsDeactivated(st.Status) {
		if err := api.auth.revokeUser(ctx.Request().Context(), st.ID); err != nil {
			return errors.Wrap(err, "revoking student sessions")
		}
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.DeleteStudent(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if err := api.auth.revokeUser(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "revoking student sessions")
	}
	return ctx.NoContent(http.StatusNoContent)
}
