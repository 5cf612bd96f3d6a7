package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core/rating"
	"github.com/trezcool/vidyalaya/core/user"
)

type ratingApi struct {
	svc      rating.Service
	validate *validator.Validate
}

func registerRatingAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := ratingApi{svc: s.deps.RatingSvc, validate: s.deps.Validate}
	admin := roleMiddleware(user.RoleAdmin)

	// un-authed endpoints
	// TODO: rate limit `POST /ratings` per client IP
	g.GET("/testimonials", api.testimonials)
	g.POST("/ratings", api.submit)

	// admin endpoints
	g.GET("/ratings", api.query, jwt, admin)
	g.PATCH("/ratings/:id", api.moderate, jwt, admin)
	g.DELETE("/ratings/:id", api.destroy, jwt, admin)
}

// Handlers

func (api *ratingApi) testimonials(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit")) // the service bounds it
	t, err := api.svc.Testimonials(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "getting testimonials")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *ratingApi) submit(ctx echo.Context) error {
	var data rating.NewRating
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRating")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting rating")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *ratingApi) query(ctx echo.Context) error {
	ratings, err := api.svc.List(ctx.Request().Context(), ctx.QueryParam("status"))
	if err != nil {
		return errors.Wrap(err, "querying ratings")
	}
	if ratings == nil {
		ratings = []rating.Rating{}
	}
	return ctx.JSON(http.StatusOK, ratings)
}

func (api *ratingApi) moderate(ctx echo.Context) error {
	var data rating.Moderate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Moderate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Moderate(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "moderating rating")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *ratingApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting rating")
	}
	return ctx.NoContent(http.StatusNoContent)
}
