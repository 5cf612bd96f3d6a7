package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/attendance"
	"github.com/trezcool/vidyalaya/core/comment"
	"github.com/trezcool/vidyalaya/core/marks"
	"github.com/trezcool/vidyalaya/core/user"
)

type meApi struct {
	users      user.Service
	marks      marks.Service
	attendance attendance.Service
	comments   comment.Service
}

func registerMeAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := meApi{
		users:      s.deps.UserSvc,
		marks:      s.deps.MarksSvc,
		attendance: s.deps.AttendanceSvc,
		comments:   s.deps.CommentSvc,
	}

	mg := g.Group("/me", jwt, roleMiddleware(user.RoleStudent))
	mg.GET("/dashboard", api.dashboard)
	mg.GET("/marks", api.reportCard)
	mg.GET("/attendance", api.attendanceRecords)
	mg.GET("/comments", api.recentComments)
}

// Handlers

func (api *meApi) dashboard(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	p := getContextPrincipal(ctx)

	st, err := api.users.GetStudent(reqCtx, p.ID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	summary, err := api.marks.Summary(reqCtx, p.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing marks")
	}
	pct, err := api.attendance.StudentPercentage(reqCtx, p.ID, attendance.PercentageDays)
	if err != nil {
		return errors.Wrap(err, "computing attendance percentage")
	}
	comments, err := api.comments.StudentComments(reqCtx, p, p.ID)
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if comments == nil {
		comments = []comment.Comment{}
	}

	return ctx.JSON(http.StatusOK, Dashboard{
		Student:              st,
		Marks:                summary,
		AttendancePercentage: pct,
		Comments:             comments,
	})
}

func (api *meApi) reportCard(ctx echo.Context) error {
	p := getContextPrincipal(ctx)
	rc, err := api.marks.ReportCard(ctx.Request().Context(), p, p.ID)
	if err != nil {
		return errors.Wrap(err, "getting report card")
	}
	return ctx.JSON(http.StatusOK, rc)
}

func (api *meApi) attendanceRecords(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	p := getContextPrincipal(ctx)

	from, to := ctx.QueryParam("from"), ctx.QueryParam("to")
	if from == "" && to == "" {
		from = core.NowFunc().AddDate(0, 0, -attendance.PercentageDays).Format(core.DateLayout)
		to = core.Today()
	}

	records, err := api.attendance.StudentRecords(reqCtx, p, p.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	pct, err := api.attendance.StudentPercentage(reqCtx, p.ID, attendance.PercentageDays)
	if err != nil {
		return errors.Wrap(err, "computing attendance percentage")
	}
	return ctx.JSON(http.StatusOK, attendance.StudentAttendance{Percentage: pct, Records: records})
}

func (api *meApi) recentComments(ctx echo.Context) error {
	p := getContextPrincipal(ctx)
	comments, err := api.comments.StudentComments(ctx.Request().Context(), p, p.ID)
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if comments == nil {
		comments = []comment.Comment{}
	}
	return ctx.JSON(http.StatusOK, comments)
}

// Dashboard is the landing page data of a student.
type Dashboard struct {
	Student              user.Student      `json:"student"`
	Marks                marks.Summary     `json:"marks"`
	AttendancePercentage int               `json:"attendance_percentage"`
	Comments             []comment.Comment `json:"comments"`
}
