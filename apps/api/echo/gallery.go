package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/gallery"
	"github.com/trezcool/vidyalaya/core/user"
)

type galleryApi struct {
	svc      gallery.Service
	validate *validator.Validate
}

func registerGalleryAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := galleryApi{svc: s.deps.GallerySvc, validate: s.deps.Validate}
	admin := roleMiddleware(user.RoleAdmin)

	// un-authed endpoints
	g.GET("/gallery", api.public)

	// admin endpoints
	g.GET("/gallery/all", api.all, jwt, admin)
	g.POST("/gallery", api.create, jwt, admin)
	g.POST("/gallery/upload", api.upload, jwt, admin)
	g.PATCH("/gallery/:id/toggle", api.toggle, jwt, admin)
	g.DELETE("/gallery/:id", api.destroy, jwt, admin)
}

// Handlers

func (api *galleryApi) public(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Public(ctx.Request().Context()))
}

func (api *galleryApi) all(ctx echo.Context) error {
	images, err := api.svc.All(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying images")
	}
	if images == nil {
		images = []gallery.Image{}
	}
	return ctx.JSON(http.StatusOK, images)
}

func (api *galleryApi) create(ctx echo.Context) error {
	var data gallery.NewImage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewImage")
	}
	if err := data.Validate(api.validate, false); err != nil {
		return err
	}

	img, err := api.svc.Add(ctx.Request().Context(), getContextPrincipal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "adding image")
	}
	return ctx.JSON(http.StatusCreated, img)
}

// upload expects a multipart form with the image file under "image".
func (api *galleryApi) upload(ctx echo.Context) error {
	var data gallery.NewImage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewImage")
	}
	if err := data.Validate(api.validate, true); err != nil {
		return err
	}

	fh, err := ctx.FormFile("image")
	if err != nil {
		return core.NewFieldError("image", "Please select an image to upload")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded image")
	}
	defer f.Close()

	img, err := api.svc.Upload(ctx.Request().Context(), getContextPrincipal(ctx), data, f, fh.Filename)
	if err != nil {
		return errors.Wrap(err, "uploading image")
	}
	return ctx.JSON(http.StatusCreated, img)
}

func (api *galleryApi) toggle(ctx echo.Context) error {
	img, err := api.svc.Toggle(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling image")
	}
	return ctx.JSON(http.StatusOK, img)
}

func (api *galleryApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting image")
	}
	return ctx.NoContent(http.StatusNoContent)
}
