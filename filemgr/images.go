// Package filemgr prepares images picked from disk for multipart profile uploads.
package filemgr

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"kiosk/api"
	"kiosk/apperr"

	"github.com/disintegration/imaging"
)

// PrepareImage loads the image at path, shrinks it to maxWidth when wider and
// re-encodes it for the given form field. A maxWidth of zero uses the field default.
// PNGs stay PNG; everything else becomes JPEG.
func PrepareImage(picType PictureType, path string, maxWidth int) (api.File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !isExtensionAllowed(ext, picType) {
		return api.File{}, apperr.Wrap(apperr.ValidationFailure,
			fmt.Sprintf("%s must be one of %s.", picType, strings.Join(AllowedExtensions[picType], ", ")),
			fmt.Errorf("%w: %q", ErrInvalidExtension, ext))
	}
	info, err := os.Stat(path)
	if err != nil {
		return api.File{}, apperr.Wrap(apperr.ValidationFailure, "Could not read the selected image.", err)
	}
	if info.Size() > MaxFileSize {
		return api.File{}, apperr.Wrap(apperr.ValidationFailure, "The selected image is too large.", ErrFileTooLarge)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return api.File{}, apperr.Wrap(apperr.ValidationFailure, "The selected file is not a readable image.", err)
	}
	return Encode(picType, filepath.Base(path), img, maxWidth)
}

// Encode downsizes img when wider than maxWidth and encodes it as an attachment.
func Encode(picType PictureType, filename string, img image.Image, maxWidth int) (api.File, error) {
	if maxWidth <= 0 {
		maxWidth = MaxWidths[picType]
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	format, ext, contentType := imaging.JPEG, ".jpg", "image/jpeg"
	if strings.EqualFold(filepath.Ext(filename), ".png") {
		format, ext, contentType = imaging.PNG, ".png", "image/png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return api.File{}, fmt.Errorf("encode %s: %w", filename, err)
	}
	return api.File{
		Field:       string(picType),
		Filename:    ensureSafeFilename(filename, ext),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}
