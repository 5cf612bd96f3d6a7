package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core/notice"
	"github.com/trezcool/vidyalaya/core/user"
)

type noticeApi struct {
	svc      notice.Service
	validate *validator.Validate
}

func registerNoticeAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := noticeApi{svc: s.deps.NoticeSvc, validate: s.deps.Validate}

	admin := roleMiddleware(user.RoleAdmin)

	// un-authed endpoints
	g.GET("/notices", api.active)

	// admin endpoints
	g.GET("/notices/all", api.all, jwt, admin)
	g.POST("/notices", api.create, jwt, admin)
	g.PATCH("/notices/:id/toggle", api.toggle, jwt, admin)
	g.DELETE("/notices/:id", api.destroy, jwt, admin)
}

// Handlers

func (api *noticeApi) active(ctx echo.Context) error {
	notices, err := api.svc.Active(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying active notices")
	}
	return ctx.JSON(http.StatusOK, nonNilNotices(notices))
}

func (api *noticeApi) all(ctx echo.Context) error {
	notices, err := api.svc.All(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	return ctx.JSON(http.StatusOK, nonNilNotices(notices))
}

func (api *noticeApi) create(ctx echo.Context) error {
	var data notice.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Create(ctx.Request().Context(), getContextPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noticeApi) toggle(ctx echo.Context) error {
	n, err := api.svc.Toggle(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling notice")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noticeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func nonNilNotices(notices []notice.Notice) []notice.Notice {
	if notices == nil {
		return []notice.Notice{}
	}
	return notices
}
