package ai

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewImage_DetectsPNG(t *testing.T) {
	data := encodePNG(t)

	img, err := NewImage(data, 0)
	require.NoError(t, err)
	require.Equal(t, "image/png", img.MediaType)
	require.NotEmpty(t, img.Base64())
}

func TestNewImage_RejectsNonImage(t *testing.T) {
	_, err := NewImage([]byte("just some text"), 0)
	require.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNewImage_RejectsEmpty(t *testing.T) {
	_, err := NewImage(nil, 0)
	require.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNewImage_RejectsOversized(t *testing.T) {
	data := encodePNG(t)

	_, err := NewImage(data, int64(len(data)-1))
	require.ErrorIs(t, err, ErrImageTooLarge)
}
