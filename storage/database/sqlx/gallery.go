package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/vidyalaya/core/gallery"
)

const imageColumns = `id, image_url, title, description, display_order, is_active, uploaded_by::text AS uploaded_by, created_at`

type imageRow struct {
	ID           string      `db:"id"`
	ImageURL     string      `db:"image_url"`
	Title        string      `db:"title"`
	Description  string      `db:"description"`
	DisplayOrder int         `db:"display_order"`
	IsActive     bool        `db:"is_active"`
	UploadedBy   null.String `db:"uploaded_by"`
	CreatedAt    time.Time   `db:"created_at"`
}

func newImageRow(img gallery.Image) imageRow {
	return imageRow{
		ID:           img.ID,
		ImageURL:     img.ImageURL,
		Title:        img.Title,
		Description:  img.Description,
		DisplayOrder: img.DisplayOrder,
		IsActive:     img.IsActive,
		UploadedBy:   nullString(img.UploadedBy),
		CreatedAt:    img.CreatedAt.UTC(),
	}
}

func (row imageRow) image() gallery.Image {
	return gallery.Image{
		ID:           row.ID,
		ImageURL:     row.ImageURL,
		Title:        row.Title,
		Description:  row.Description,
		DisplayOrder: row.DisplayOrder,
		IsActive:     row.IsActive,
		UploadedBy:   row.UploadedBy.String,
		CreatedAt:    row.CreatedAt,
	}
}

type galleryRepository struct {
	repo
}

var _ gallery.Repository = (*galleryRepository)(nil) // interface compliance check

func NewGalleryRepository(db *sqlx.DB) gallery.Repository {
	return &galleryRepository{repo{db: db}}
}

func (r *galleryRepository) QueryImages(ctx context.Context, activeOnly bool) ([]gallery.Image, error) {
	q := `SELECT ` + imageColumns + ` FROM gallery_images`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY display_order, created_at DESC`

	rows := make([]imageRow, 0)
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying images")
	}
	images := make([]gallery.Image, 0, len(rows))
	for _, row := range rows {
		images = append(images, row.image())
	}
	return images, nil
}

func (r *galleryRepository) GetImageByID(ctx context.Context, id string) (gallery.Image, error) {
	if !validID(id) {
		return gallery.Image{}, gallery.ErrNotFound
	}
	var row imageRow
	if err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+imageColumns+` FROM gallery_images WHERE id = $1`, id); err != nil {
		return gallery.Image{}, trapNoRowsErr(err, gallery.ErrNotFound, "finding image")
	}
	return row.image(), nil
}

func (r *galleryRepository) CreateImage(ctx context.Context, img gallery.Image) (gallery.Image, error) {
	img.ID = newID()
	q := `INSERT INTO gallery_images (id, image_url, title, description, display_order, is_active, uploaded_by, created_at)
		VALUES (:id, :image_url, :title, :description, :display_order, :is_active, :uploaded_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, newImageRow(img)); err != nil {
		return gallery.Image{}, errors.Wrap(err, "inserting image")
	}
	return img, nil
}

func (r *galleryRepository) UpdateImage(ctx context.Context, img gallery.Image) (gallery.Image, error) {
	q := `UPDATE gallery_images SET image_url = :image_url, title = :title, description = :description,
			display_order = :display_order, is_active = :is_active
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, q, newImageRow(img))
	if err := checkAffected(res, err, gallery.ErrNotFound, "updating image"); err != nil {
		return gallery.Image{}, err
	}
	return img, nil
}

func (r *galleryRepository) DeleteImage(ctx context.Context, id string) error {
	if !validID(id) {
		return gallery.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM gallery_images WHERE id = $1`, id)
	return checkAffected(res, err, gallery.ErrNotFound, "deleting image")
}
