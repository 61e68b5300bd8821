package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func testFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodeFrameJPEGRoundTrip(t *testing.T) {
	frame := testFrame(64, 48)

	encoded, err := EncodeFrameJPEG(frame, 0)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeBase64Image(encoded)
	require.NoError(t, err)
	require.Equal(t, 64, decoded.Bounds().Dx())
	require.Equal(t, 48, decoded.Bounds().Dy())
}

func TestEncodeFrameJPEGScalesLargeFrames(t *testing.T) {
	frame := testFrame(2560, 1440)

	encoded, err := EncodeFrameJPEG(frame, 1280)
	require.NoError(t, err)

	decoded, err := DecodeBase64Image(encoded)
	require.NoError(t, err)
	require.Equal(t, 1280, decoded.Bounds().Dx())
	require.Equal(t, 720, decoded.Bounds().Dy())
}

func TestEncodeFrameJPEGNilFrame(t *testing.T) {
	_, err := EncodeFrameJPEG(nil, 0)
	require.Error(t, err)
}

func TestEncodeFramePNGRoundTrip(t *testing.T) {
	frame := testFrame(32, 32)

	encoded, err := EncodeFramePNG(frame)
	require.NoError(t, err)

	decoded, err := DecodeBase64Image(encoded)
	require.NoError(t, err)
	require.Equal(t, frame.Bounds(), decoded.Bounds())
}

func TestDecodeBase64ImageInvalidInput(t *testing.T) {
	_, err := DecodeBase64Image("not-base64!!!")
	require.Error(t, err)

	_, err = DecodeBase64Image("aGVsbG8=") // valid base64, not an image
	require.Error(t, err)
}
