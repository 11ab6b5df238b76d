// Package coverart validates a user-supplied cover image for a clip export
// and produces a small JPEG thumbnail preview of it.
package coverart

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	_ "image/gif"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	apperr "cursedclipper/internal/errors"
)

const defaultThumbnailSize = 96
const thumbnailQuality = 80

// minDimension/maxDimension bound a cover image's usable resolution: too
// small looks broken on a platform's thumbnail grid, too large is almost
// always a user mistake (a full-res frame grab rather than a cover crop).
const minDimension = 64
const maxDimension = 8192

// Validate decodes path and checks its dimensions are sane for use as a
// clip cover image, returning its width and height.
func Validate(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, apperr.Wrap("coverart.Validate", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, apperr.WrapWithMessage("coverart.Validate", apperr.ErrMediaInvalid, "not a recognizable image")
	}

	if cfg.Width < minDimension || cfg.Height < minDimension {
		return 0, 0, apperr.NewWithMessage("coverart.Validate", apperr.ErrMediaInvalid, "cover image is too small")
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		return 0, 0, apperr.NewWithMessage("coverart.Validate", apperr.ErrMediaInvalid, "cover image is too large")
	}

	return cfg.Width, cfg.Height, nil
}

// Thumbnail decodes the image at path, scales it so its longest edge is
// maxSize pixels (preserving aspect ratio), and returns it as a
// data:image/jpeg;base64,... URI suitable for an inline preview.
func Thumbnail(path string, maxSize int) (string, error) {
	if maxSize <= 0 {
		maxSize = defaultThumbnailSize
	}

	f, err := os.Open(path)
	if err != nil {
		return "", apperr.Wrap("coverart.Thumbnail", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", apperr.WrapWithMessage("coverart.Thumbnail", apperr.ErrMediaInvalid, "failed to decode cover image")
	}

	bounds := src.Bounds()
	newW, newH := scaledDimensions(bounds.Dx(), bounds.Dy(), maxSize)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return "", apperr.Wrap("coverart.Thumbnail", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func scaledDimensions(w, h, maxSize int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}

	var newW, newH int
	if w >= h {
		newW = maxSize
		newH = int(float64(h) * float64(maxSize) / float64(w))
	} else {
		newH = maxSize
		newW = int(float64(w) * float64(maxSize) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}
