package filemgr

import "errors"

// PictureType is the kind of image a form field attaches.
type PictureType string

const (
	PicProfile PictureType = "profileImage"
	PicLogo    PictureType = "logo"
	PicBanner  PictureType = "banner"
)

var (
	AllowedExtensions = map[PictureType][]string{
		PicProfile: {".jpg", ".jpeg", ".png", ".gif", ".webp"},
		PicLogo:    {".jpg", ".jpeg", ".png"},
		PicBanner:  {".jpg", ".jpeg", ".png"},
	}

	// MaxWidths is the default width each picture type is downsized to.
	MaxWidths = map[PictureType]int{
		PicProfile: 512,
		PicLogo:    512,
		PicBanner:  1600,
	}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
)

// MaxFileSize is the largest source image accepted.
const MaxFileSize = 10 << 20
