package gallery

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(4, 3, color.White)))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestDecode_Undecodable(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndecodable))
}

// pngHeader builds a PNG holding only an IHDR chunk for an 8-bit RGBA image
// of the given size.
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(kind string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(kind), data...)
		buf.Write(body)
		_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestDecode_RejectsOversizedDimensions(t *testing.T) {
	data := pngHeader(50000, 50000)
	require.Less(t, len(data), 100)

	_, err := Decode(bytes.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.Contains(t, err.Error(), "50000x50000")
}

func TestDecode_LargeButAllowedImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3000, 2000))))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3000, img.Bounds().Dx())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
	}{
		{"within bounds", 100, 50, 200, 100, 50},
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 200, 400, 100, 50, 100},
		{"disabled", 400, 200, 0, 400, 200},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Normalize(solidImage(tc.width, tc.height, color.Black), tc.maxSize)
			assert.Equal(t, tc.wantW, out.Bounds().Dx())
			assert.Equal(t, tc.wantH, out.Bounds().Dy())
		})
	}
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(solidImage(300, 150, color.RGBA{R: 200, A: 255}), 100)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestEncodeAll(t *testing.T) {
	_, err := encodeAll(nil, 100)
	assert.ErrorIs(t, err, ErrNoImages)

	_, err = encodeAll([]image.Image{solidImage(2, 2, color.White), nil}, 100)
	assert.ErrorIs(t, err, ErrUndecodable)

	encoded, err := encodeAll([]image.Image{solidImage(2, 2, color.White)}, 100)
	require.NoError(t, err)
	assert.Len(t, encoded, 1)
}
