package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/attendance"
	"github.com/trezcool/vidyalaya/core/user"
)

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := attendanceApi{svc: s.deps.AttendanceSvc, validate: s.deps.Validate}

	ag := g.Group("/attendance", jwt, roleMiddleware(user.RoleAdmin, user.RoleTeacher))
	ag.GET("", api.day)
	ag.PUT("", api.save)
	ag.GET("/history", api.history)
}

// Handlers

func (api *attendanceApi) day(ctx echo.Context) error {
	day, err := api.svc.Day(ctx.Request().Context(), getContextPrincipal(ctx), ctx.QueryParam("class_section"), ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "getting attendance")
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *attendanceApi) save(ctx echo.Context) error {
	var data attendance.SaveAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	day, err := api.svc.Save(ctx.Request().Context(), getContextPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "saving attendance")
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *attendanceApi) history(ctx echo.Context) error {
	var days int
	if raw := ctx.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return core.NewFieldError("days", "must be a positive number")
		}
		days = n
	}

	h, err := api.svc.History(ctx.Request().Context(), getContextPrincipal(ctx), ctx.QueryParam("class_section"), days)
	if err != nil {
		return errors.Wrap(err, "getting attendance history")
	}
	return ctx.JSON(http.StatusOK, h)
}
