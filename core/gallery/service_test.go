package gallery_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/gallery"
	"github.com/trezcool/vidyalaya/core/user"
	logsvc "github.com/trezcool/vidyalaya/services/logger"
	inmemdb "github.com/trezcool/vidyalaya/storage/database/inmem"
)

var errDown = errors.New("connection refused")

// brokenRepository fails every query.
type brokenRepository struct {
	gallery.Repository
}

func (brokenRepository) QueryImages(context.Context, bool) ([]gallery.Image, error) {
	return nil, errDown
}

func testConfig() *core.Config {
	return &core.Config{
		AppName: "Vidyalaya", Env: "TEST", TestMode: true,
		Media: core.MediaConfig{URLPrefix: "/media", DefaultsURL: "https://photos.example/home/"},
	}
}

func newService(repo gallery.Repository) gallery.Service {
	conf := testConfig()
	return gallery.NewService(repo, nil, conf, logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf))
}

func seedImages(t *testing.T, repo gallery.Repository, orders ...int) {
	for i, order := range orders {
		_, err := repo.CreateImage(context.Background(), gallery.Image{
			ImageURL: "https://photos.example/seed.jpeg", Title: "Seed", DisplayOrder: order,
			IsActive: true, CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
}

func TestService_Add(t *testing.T) {
	admin := user.Principal{ID: "adm1", Role: user.RoleAdmin, Name: "Head"}

	tests := []struct {
		name      string
		existing  []int
		order     int
		wantOrder int
	}{
		{name: "first image", wantOrder: 1},
		{name: "appended after the highest order", existing: []int{3, 1}, wantOrder: 4},
		{name: "explicit order is kept", existing: []int{3, 1}, order: 2, wantOrder: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := inmemdb.NewGalleryRepository(inmemdb.Open())
			seedImages(t, repo, tt.existing...)
			svc := newService(repo)

			img, err := svc.Add(context.Background(), admin, gallery.NewImage{
				ImageURL: "https://photos.example/annual-day.jpeg", Title: "Annual Day", DisplayOrder: tt.order,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, img.DisplayOrder)
			assert.True(t, img.IsActive)
			assert.Equal(t, admin.ID, img.UploadedBy)
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		_, err := newService(brokenRepository{}).Add(context.Background(), admin, gallery.NewImage{
			ImageURL: "https://photos.example/annual-day.jpeg", Title: "Annual Day",
		})
		assert.True(t, errors.Is(err, errDown))
	})
}

func TestService_Public(t *testing.T) {
	defaults := gallery.DefaultImages("https://photos.example/home")
	require.Len(t, defaults, 8)
	assert.Equal(t, "https://photos.example/home/1-1024.jpeg", defaults[0].ImageURL)
	assert.Equal(t, "School Photo 8", defaults[7].Title)

	t.Run("storage failure", func(t *testing.T) {
		assert.Equal(t, defaults, newService(brokenRepository{}).Public(context.Background()))
	})

	t.Run("empty gallery", func(t *testing.T) {
		svc := newService(inmemdb.NewGalleryRepository(inmemdb.Open()))
		assert.Equal(t, defaults, svc.Public(context.Background()))
	})

	t.Run("active images by display order", func(t *testing.T) {
		ctx := context.Background()
		repo := inmemdb.NewGalleryRepository(inmemdb.Open())
		seedImages(t, repo, 2, 1)
		hidden, err := repo.CreateImage(ctx, gallery.Image{ImageURL: "https://photos.example/x.jpeg", Title: "Hidden", DisplayOrder: 3})
		require.NoError(t, err)

		images := newService(repo).Public(ctx)
		require.Len(t, images, 2)
		assert.Equal(t, 1, images[0].DisplayOrder)
		assert.Equal(t, 2, images[1].DisplayOrder)
		for _, img := range images {
			assert.NotEqual(t, hidden.ID, img.ID)
		}
	})
}
