package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/comment"
	"github.com/trezcool/vidyalaya/core/user"
)

type commentApi struct {
	svc      comment.Service
	validate *validator.Validate
}

func registerCommentAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := commentApi{svc: s.deps.CommentSvc, validate: s.deps.Validate}
	staff := roleMiddleware(user.RoleAdmin, user.RoleTeacher)

	cg := g.Group("/comments", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, staff)
	cg.GET("/students", api.students, staff)
	cg.DELETE("/:id", api.destroy, staff)
}

// Handlers

func (api *commentApi) query(ctx echo.Context) error {
	p := getContextPrincipal(ctx)
	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		if !p.IsStudent() {
			return core.NewFieldError("student_id", "Please select a student")
		}
		studentID = p.ID
	}

	comments, err := api.svc.StudentComments(ctx.Request().Context(), p, studentID)
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if comments == nil {
		comments = []comment.Comment{}
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (api *commentApi) create(ctx echo.Context) error {
	var data comment.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Add(ctx.Request().Context(), getContextPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *commentApi) students(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context(), getContextPrincipal(ctx), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *commentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
