package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/roster"
	"github.com/trezcool/vidyalaya/core/user"
)

type rosterApi struct {
	svc roster.Service
}

func registerRosterAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := rosterApi{svc: s.deps.RosterSvc}
	staff := roleMiddleware(user.RoleAdmin, user.RoleTeacher)

	g.GET("/roster", api.students, jwt, staff)
	g.GET("/ranking", api.ranking, jwt, staff)
}

// Handlers

func (api *rosterApi) students(ctx echo.Context) error {
	f, err := bindRosterFilter(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.Students(ctx.Request().Context(), getContextPrincipal(ctx), f, roster.ParseSort(ctx.QueryParam("sort"), ctx.QueryParam("order")))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	if entries == nil {
		entries = []roster.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *rosterApi) ranking(ctx echo.Context) error {
	f, err := bindRosterFilter(ctx)
	if err != nil {
		return err
	}
	var srt *roster.Sort
	if raw := ctx.QueryParam("sort"); raw != "" {
		s := roster.ParseSort(raw, ctx.QueryParam("order"))
		srt = &s
	}

	entries, err := api.svc.Ranking(ctx.Request().Context(), getContextPrincipal(ctx), f, srt)
	if err != nil {
		return errors.Wrap(err, "ranking students")
	}
	if entries == nil {
		entries = []roster.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func bindRosterFilter(ctx echo.Context) (roster.Filter, error) {
	var f roster.Filter
	if err := ctx.Bind(&f); err != nil {
		return f, errors.Wrap(err, "binding to roster.Filter")
	}

	var err error
	if f.MinPercentage, err = percentageParam(ctx, "min_percentage"); err != nil {
		return f, err
	}
	if f.MaxPercentage, err = percentageParam(ctx, "max_percentage"); err != nil {
		return f, err
	}
	return f, nil
}

func percentageParam(ctx echo.Context, name string) (*float64, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil || pct < 0 || pct > 100 {
		return nil, core.NewFieldError(name, "must be a number between 0 and 100")
	}
	return &pct, nil
}
