package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// ErrUndecodable is returned when uploaded bytes are not a supported image.
var ErrUndecodable = errors.New("image could not be decoded")

// Decode decodes JPEG, PNG, GIF, BMP, TIFF or WebP data. The header is read
// first and images larger than constants.MaxImagePixels are rejected.
func Decode(r io.Reader) (image.Image, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > constants.MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds the pixel limit", ErrUndecodable, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	return img, nil
}

// Normalize downscales img to fit within maxSize while keeping aspect ratio.
// Images already within bounds, or a non-positive maxSize, are returned as is.
func Normalize(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// EncodeJPEG normalizes img and encodes it as a gallery JPEG.
func EncodeJPEG(img image.Image, maxSize int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Normalize(img, maxSize), &jpeg.Options{Quality: constants.GalleryJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeAll encodes every image up front so a bad image fails Put before anything is written.
func encodeAll(images []image.Image, maxSize int) ([][]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	encoded := make([][]byte, len(images))
	for i, img := range images {
		if img == nil {
			return nil, fmt.Errorf("image %d: %w", i+1, ErrUndecodable)
		}
		data, err := EncodeJPEG(img, maxSize)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		encoded[i] = data
	}
	return encoded, nil
}
