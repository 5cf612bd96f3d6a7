package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/gallery"
)

const galleryFolder = "gallery"

var (
	ErrUnsupportedImage = core.NewFieldError("image", "Please upload a JPEG, PNG or GIF image")
	ErrInvalidImage     = core.NewFieldError("image", "The uploaded file is not a valid image")
)

// Store keeps uploaded images on the local disk, under conf.Media.Dir, served at conf.Media.URLPrefix.
// Images larger than MaxWidth x MaxHeight are scaled down to fit.
type Store struct {
	dir       string
	urlPrefix string
	maxWidth  int
	maxHeight int
}

var _ gallery.Store = (*Store)(nil) // interface compliance check

func NewStore(conf *core.Config) (*Store, error) {
	dir := filepath.Join(conf.Media.Dir, galleryFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media directory")
	}
	return &Store{
		dir:       conf.Media.Dir,
		urlPrefix: strings.TrimSuffix(conf.Media.URLPrefix, "/"),
		maxWidth:  conf.Media.MaxWidth,
		maxHeight: conf.Media.MaxHeight,
	}, nil
}

func (s *Store) Save(_ context.Context, r io.Reader, filename string) (string, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return "", ErrUnsupportedImage
	}
	switch format {
	case imaging.JPEG, imaging.PNG, imaging.GIF:
	default:
		return "", ErrUnsupportedImage
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrInvalidImage
	}
	b := img.Bounds()
	if s.maxWidth > 0 && s.maxHeight > 0 && (b.Dx() > s.maxWidth || b.Dy() > s.maxHeight) {
		img = imaging.Fit(img, s.maxWidth, s.maxHeight, imaging.Lanczos)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if format == imaging.JPEG {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s-%s%s", core.NowFunc().Format("20060102"), uuid.New().String(), ext)

	f, err := os.Create(filepath.Join(s.dir, galleryFolder, name))
	if err != nil {
		return "", errors.Wrap(err, "creating image file")
	}
	defer func() { _ = f.Close() }()

	if err := imaging.Encode(f, img, format, imaging.JPEGQuality(85)); err != nil {
		return "", errors.Wrap(err, "encoding image")
	}
	return path.Join(s.urlPrefix, galleryFolder, name), nil
}

func (s *Store) Delete(_ context.Context, url string) error {
	prefix := path.Join(s.urlPrefix, galleryFolder) + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil // external URL or default image
	}
	name := path.Base(url)
	err := os.Remove(filepath.Join(s.dir, galleryFolder, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing image file")
	}
	return nil
}
