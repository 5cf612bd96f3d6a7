package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/school"
	"github.com/trezcool/vidyalaya/core/user"
)

type schoolApi struct {
	svc      school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := schoolApi{svc: s.deps.SchoolSvc, validate: s.deps.Validate}
	admin := roleMiddleware(user.RoleAdmin)

	cg := g.Group("/class-sections", jwt)
	cg.GET("", api.classSections)
	cg.POST("", api.createClassSection, admin)

	sg := g.Group("/subjects", jwt)
	sg.GET("", api.subjects)
	sg.GET("/catalog", api.catalog)
	sg.POST("", api.createSubject, admin)
}

// Handlers

func (api *schoolApi) classSections(ctx echo.Context) error {
	classes, err := api.svc.ClassSections(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying class-sections")
	}
	if classes == nil {
		classes = []school.ClassSection{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) createClassSection(ctx echo.Context) error {
	var data school.NewClassSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassSection")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cs, err := api.svc.CreateClassSection(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class-section")
	}
	return ctx.JSON(http.StatusCreated, cs)
}

func (api *schoolApi) subjects(ctx echo.Context) error {
	n, err := classQueryParam(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.svc.Subjects(ctx.Request().Context(), n)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) catalog(ctx echo.Context) error {
	n, err := classQueryParam(ctx)
	if err != nil {
		return err
	}
	catalog := school.SubjectCatalog(n)
	if catalog == nil {
		catalog = []string{}
	}
	return ctx.JSON(http.StatusOK, catalog)
}

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subj, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

// classQueryParam reads the optional `class` query param, e.g. "10", "10th" or "X".
func classQueryParam(ctx echo.Context) (int, error) {
	raw := ctx.QueryParam("class")
	if raw == "" {
		return 0, nil
	}
	if n, ok := school.ParseClassNumber(raw); ok && n >= school.MinClass && n <= school.MaxClass {
		return n, nil
	}
	return 0, core.NewFieldError("class", "invalid class")
}
