package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core"
)

func newTestStore(t *testing.T) *Store {
	conf := &core.Config{Media: core.MediaConfig{Dir: t.TempDir(), URLPrefix: "/media/", MaxWidth: 40, MaxHeight: 30}}
	s, err := NewStore(conf)
	require.NoError(t, err)
	return s
}

func pngImage(t *testing.T, w, h int) *bytes.Buffer {
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return &buf
}

func TestStore_Save(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url, err := s.Save(ctx, pngImage(t, 80, 40), "Sports Day.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/gallery/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	file := filepath.Join(s.dir, galleryFolder, filepath.Base(url))
	img, err := imaging.Open(file)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds(), "scaled down to fit")

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, url), "already deleted")
	assert.NoError(t, s.Delete(ctx, "https://example.com/photo.jpg"), "not owned")
}

func TestStore_Save_invalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, pngImage(t, 10, 10), "notes.txt")
	assert.Equal(t, ErrUnsupportedImage, err)

	_, err = s.Save(ctx, bytes.NewBufferString("not an image"), "photo.jpg")
	assert.Equal(t, ErrInvalidImage, err)
}
