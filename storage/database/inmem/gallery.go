package inmemdb

import (
	"context"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/gallery"
)

type galleryRepository struct {
	db *DB
}

var _ gallery.Repository = (*galleryRepository)(nil) // interface compliance check

func NewGalleryRepository(db *DB) gallery.Repository {
	return &galleryRepository{db: db}
}

func (repo *galleryRepository) QueryImages(_ context.Context, activeOnly bool) ([]gallery.Image, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	images := make([]gallery.Image, 0)
	for _, img := range repo.db.images {
		if activeOnly && !img.IsActive {
			continue
		}
		images = append(images, img)
	}
	sortBy(images, []core.DBOrdering{{Field: "display_order", Ascending: true}, {Field: "created_at"}},
		map[string]func(gallery.Image) interface{}{
			"display_order": func(i gallery.Image) interface{} { return int64(i.DisplayOrder) },
			"created_at":    func(i gallery.Image) interface{} { return i.CreatedAt.UnixNano() },
		}, core.DBOrdering{})
	return images, nil
}

func (repo *galleryRepository) GetImageByID(_ context.Context, id string) (gallery.Image, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if img, ok := repo.db.images[id]; ok {
		return img, nil
	}
	return gallery.Image{}, gallery.ErrNotFound
}

func (repo *galleryRepository) CreateImage(_ context.Context, img gallery.Image) (gallery.Image, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	img.ID = newID()
	repo.db.images[img.ID] = img
	return img, nil
}

func (repo *galleryRepository) UpdateImage(_ context.Context, img gallery.Image) (gallery.Image, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.images[img.ID]
	if !ok {
		return gallery.Image{}, gallery.ErrNotFound
	}
	img.UploadedBy = orig.UploadedBy
	img.CreatedAt = orig.CreatedAt
	repo.db.images[img.ID] = img
	return img, nil
}

func (repo *galleryRepository) DeleteImage(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.images[id]; !ok {
		return gallery.ErrNotFound
	}
	delete(repo.db.images, id)
	return nil
}
