package filemgr

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"kiosk/apperr"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestPrepareImageDownsizes(t *testing.T) {
	path := writeImage(t, "My Banner.PNG", 2000, 500)

	f, err := PrepareImage(PicBanner, path, 0)
	require.NoError(t, err)
	assert.Equal(t, "banner", f.Field)
	assert.Equal(t, "my_banner.png", f.Filename)
	assert.Equal(t, "image/png", f.ContentType)

	img := decode(t, f.Data)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestPrepareImageKeepsSmall(t *testing.T) {
	path := writeImage(t, "me.jpeg", 300, 300)

	f, err := PrepareImage(PicProfile, path, 0)
	require.NoError(t, err)
	assert.Equal(t, "me.jpg", f.Filename)
	assert.Equal(t, "image/jpeg", f.ContentType)
	assert.Equal(t, 300, decode(t, f.Data).Bounds().Dx())
}

func TestPrepareImageRejects(t *testing.T) {
	_, err := PrepareImage(PicLogo, "logo.gif", 0)
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailure))
	assert.ErrorIs(t, err, ErrInvalidExtension)

	_, err = PrepareImage(PicLogo, filepath.Join(t.TempDir(), "missing.png"), 0)
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailure))

	junk := filepath.Join(t.TempDir(), "junk.jpg")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o600))
	_, err = PrepareImage(PicLogo, junk, 0)
	assert.Equal(t, "The selected file is not a readable image.", apperr.Message(err))
}

func TestEnsureSafeFilename(t *testing.T) {
	assert.Equal(t, "shop_logo.jpg", ensureSafeFilename("../Shop Logo!.jpeg", ".jpg"))
	assert.Len(t, ensureSafeFilename("???.png", ".png"), 36+4)
}
