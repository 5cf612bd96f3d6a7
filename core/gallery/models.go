package gallery

import (
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/vidyalaya/core"
)

// defaultImagesCount is the number of default photos published under Config.Media.DefaultsURL.
const defaultImagesCount = 8

var ErrNotFound = core.NewNotFoundError("image not found")

type Image struct {
	ID           string    `json:"id"`
	ImageURL     string    `json:"image_url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type NewImage struct {
	ImageURL     string `json:"image_url" form:"image_url" validate:"required,url"`
	Title        string `json:"title" form:"title" validate:"required,max=200"`
	Description  string `json:"description" form:"description" validate:"max=1000"`
	DisplayOrder int    `json:"display_order" form:"display_order" validate:"min=0"`
}

// DefaultImages returns the built-in images shown when the gallery cannot be loaded.
func DefaultImages(baseURL string) []Image {
	baseURL = strings.TrimSuffix(baseURL, "/")
	images := make([]Image, 0, defaultImagesCount)
	for i := 1; i <= defaultImagesCount; i++ {
		images = append(images, Image{
			ID:           fmt.Sprint(i),
			ImageURL:     fmt.Sprintf("%s/%d-1024.jpeg", baseURL, i),
			Title:        fmt.Sprintf("School Photo %d", i),
			DisplayOrder: i,
			IsActive:     true,
		})
	}
	return images
}
