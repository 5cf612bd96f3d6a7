package gallery

import (
	"context"
	"io"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

type (
	Repository interface {
		QueryImages(ctx context.Context, activeOnly bool) ([]Image, error)
		GetImageByID(ctx context.Context, id string) (Image, error)
		CreateImage(ctx context.Context, img Image) (Image, error)
		UpdateImage(ctx context.Context, img Image) (Image, error)
		DeleteImage(ctx context.Context, id string) error
	}

	// Store keeps uploaded image files.
	Store interface {
		// Save stores the image read from `r` and returns its public URL.
		Save(ctx context.Context, r io.Reader, filename string) (string, error)
		// Delete removes the file behind `url`; URLs it does not own are ignored.
		Delete(ctx context.Context, url string) error
	}

	Service interface {
		// Public lists active images by display order; it falls back to the default images.
		Public(ctx context.Context) []Image
		All(ctx context.Context) ([]Image, error)
		Add(ctx context.Context, actor user.Principal, ni NewImage) (Image, error)
		Upload(ctx context.Context, actor user.Principal, ni NewImage, r io.Reader, filename string) (Image, error)
		Toggle(ctx context.Context, id string) (Image, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo        Repository
		store       Store
		defaultsURL string
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, store Store, conf *core.Config, logger core.Logger) Service {
	return &service{repo: repo, store: store, defaultsURL: conf.Media.DefaultsURL, logger: logger}
}

func sortImages(images []Image) {
	sort.SliceStable(images, func(i, j int) bool {
		if images[i].DisplayOrder != images[j].DisplayOrder {
			return images[i].DisplayOrder < images[j].DisplayOrder
		}
		return images[i].CreatedAt.After(images[j].CreatedAt)
	})
}

func (svc *service) Public(ctx context.Context) []Image {
	images, err := svc.repo.QueryImages(ctx, true)
	if err != nil {
		svc.logger.Error("loading gallery: "+err.Error(), err)
		return DefaultImages(svc.defaultsURL)
	}
	if len(images) == 0 {
		return DefaultImages(svc.defaultsURL)
	}
	sortImages(images)
	return images
}

func (svc *service) All(ctx context.Context) ([]Image, error) {
	images, err := svc.repo.QueryImages(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "querying images")
	}
	sortImages(images)
	return images, nil
}

func (svc *service) Add(ctx context.Context, actor user.Principal, ni NewImage) (Image, error) {
	order := ni.DisplayOrder
	if order == 0 {
		images, err := svc.repo.QueryImages(ctx, false)
		if err != nil {
			return Image{}, errors.Wrap(err, "querying images")
		}
		for _, img := range images {
			if img.DisplayOrder > order {
				order = img.DisplayOrder
			}
		}
		order++
	}

	img, err := svc.repo.CreateImage(ctx, Image{
		ImageURL:     ni.ImageURL,
		Title:        ni.Title,
		Description:  ni.Description,
		DisplayOrder: order,
		IsActive:     true,
		UploadedBy:   actor.ID,
		CreatedAt:    core.NowFunc().UTC(),
	})
	if err != nil {
		return Image{}, errors.Wrap(err, "creating image")
	}
	return img, nil
}

func (svc *service) Upload(ctx context.Context, actor user.Principal, ni NewImage, r io.Reader, filename string) (Image, error) {
	url, err := svc.store.Save(ctx, r, filename)
	if err != nil {
		return Image{}, err
	}
	ni.ImageURL = url
	img, err := svc.Add(ctx, actor, ni)
	if err != nil {
		if dErr := svc.store.Delete(ctx, url); dErr != nil {
			svc.logger.Error(dErr.Error(), dErr, actor)
		}
		return Image{}, err
	}
	return img, nil
}

func (svc *service) Toggle(ctx context.Context, id string) (Image, error) {
	img, err := svc.repo.GetImageByID(ctx, id)
	if err != nil {
		return Image{}, err
	}
	img.IsActive = !img.IsActive
	return svc.repo.UpdateImage(ctx, img)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	img, err := svc.repo.GetImageByID(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteImage(ctx, id); err != nil {
		return errors.Wrap(err, "deleting image")
	}
	if err := svc.store.Delete(ctx, img.ImageURL); err != nil {
		svc.logger.Warn("deleting image file: "+err.Error(), err)
	}
	return nil
}

func (ni *NewImage) Validate(validate *validator.Validate, uploaded bool) error {
	ni.Title = core.CleanString(ni.Title)
	ni.Description = core.CleanString(ni.Description)
	ni.ImageURL = core.CleanString(ni.ImageURL)
	if uploaded {
		return validate.StructExcept(ni, "ImageURL")
	}
	return validate.Struct(ni)
}
